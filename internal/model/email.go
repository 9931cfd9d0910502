package model

// InboundEmail is the canonical form of one forwarded airline reply,
// decoded from either a JSON or multipart webhook body. It lives for one
// request only.
type InboundEmail struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}
