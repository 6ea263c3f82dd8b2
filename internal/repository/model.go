package repository

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Event is an outbox row. A zero ID means the outbox is empty.
type Event struct {
	ID      int64  `json:"id" db:"id"`
	Key     string `json:"key" db:"event_key"`
	Message string `json:"message" db:"message"`
}
