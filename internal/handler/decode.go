package handler

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"air24-backend/internal/model"
)

// ErrMissingFields means the webhook body had no usable from or text field.
// Hard precondition for the whole pipeline.
var ErrMissingFields = errors.New("missing required fields: from, text")

type inboundEmailBody struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// DecodeInboundEmail normalizes the webhook payload. The inbound-parse
// forwarder posts multipart/form-data with named fields; everything else is
// treated as a JSON object with the same field names.
func DecodeInboundEmail(c *gin.Context) (model.InboundEmail, error) {
	var email model.InboundEmail

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		email = model.InboundEmail{
			From:    c.PostForm("from"),
			To:      c.PostForm("to"),
			Subject: c.PostForm("subject"),
			Text:    c.PostForm("text"),
			HTML:    c.PostForm("html"),
		}
	} else {
		var body inboundEmailBody
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
			return model.InboundEmail{}, ErrMissingFields
		}
		email = model.InboundEmail{
			From:    body.From,
			To:      body.To,
			Subject: body.Subject,
			Text:    body.Text,
			HTML:    body.HTML,
		}
	}

	if email.From == "" || email.Text == "" {
		return model.InboundEmail{}, ErrMissingFields
	}
	return email, nil
}
