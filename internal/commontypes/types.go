package commontypes

// Message represents a single qualifying channel message
type Message struct {
	UserID    string
	Timestamp float64 // Seconds since the Unix epoch, fractional part permitted
}
