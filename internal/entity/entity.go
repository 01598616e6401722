package entity

// Entity is anything that can be written to the event log index.
type Entity interface {
	Slug() string
}
