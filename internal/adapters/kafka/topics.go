package kafka

// TopicReportCompleted carries a ReportEvent for every finished run.
// Used when no report topic is configured.
const TopicReportCompleted = "reports.completed"

// ConsumerGroup is the group id used by trigger consumers when none is configured
const ConsumerGroup = "equitydesk"
