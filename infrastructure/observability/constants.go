package observability

// Metric name prefixes
const (
	MetricPrefix = "rifa"
)

// Metric names
const (
	// Discord metrics
	InteractionsTotal = MetricPrefix + ".discord.interactions_total"

	// HTTP metrics
	HTTPRequestsTotal = MetricPrefix + ".http.requests_total"

	// Raffle metrics
	SessionsActive        = MetricPrefix + ".sessions.active"
	PurchaseEventsTotal   = MetricPrefix + ".purchases.events_total"
	PurchasedNumbersTotal = MetricPrefix + ".purchases.numbers_total"
	SelectionChangesTotal = MetricPrefix + ".selection.changes_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Database metrics
	LedgerWritesTotal     = MetricPrefix + ".ledger.writes_total"
	DatabaseQueriesTotal  = MetricPrefix + ".database.queries_total"
	DatabaseQueryDuration = MetricPrefix + ".database.query_duration"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelOp        = "op"
	LabelStatus    = "status"
	LabelRoute     = "route"
	LabelMethod    = "method"

	LabelRepository = "repository"
)

// Interaction types for Discord
const (
	InteractionTypeCommand   = "command"
	InteractionTypeComponent = "component"
	InteractionTypeModal     = "modal"
)
