package ledger

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the tagged result of add, update and delete, and the error
// shape of every operation.
type Envelope struct {
	Status  string `json:"status"`
	ID      *int64 `json:"id,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response is the JSON-serialisable outcome of an operation. Body is an
// Envelope, except for successful list and summarize calls whose body is
// the bare sequence.
type Response struct {
	Body  any
	Error bool
}

func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Body)
}

// Envelope returns the body as an envelope when it is one.
func (r Response) Envelope() (Envelope, bool) {
	env, ok := r.Body.(Envelope)
	return env, ok
}

func success(env Envelope) Response {
	env.Status = StatusSuccess
	return Response{Body: env}
}

func failure(message string) Response {
	return Response{Body: Envelope{Status: StatusError, Message: message}, Error: true}
}

// CategoryList is the document served by the categories resource.
type CategoryList struct {
	Categories []string `json:"categories"`
}

func (c CategoryList) JSON() string {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return `{"categories": []}`
	}
	return string(b)
}

