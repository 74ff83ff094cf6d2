package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/taskplanner/internal/notify"
)

// TaskHeader carries the reminded task's ID.
const TaskHeader = "X-Taskplanner-Task"

// Compose renders msg as a plain-text RFC 5322 message from from to to.
func Compose(msg notify.Message, from, to string) ([]byte, error) {
	var h mail.Header
	h.SetDate(msg.At)
	h.SetSubject(msg.Title)
	h.SetAddressList("From", []*mail.Address{{Name: "Task Planner", Address: from}})
	h.SetAddressList("To", []*mail.Address{{Name: msg.User, Address: to}})
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if msg.TaskID != "" {
		h.Set(TaskHeader, msg.TaskID)
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("writing mail header: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body+"\r\n"); err != nil {
		return nil, fmt.Errorf("writing mail body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing mail body: %w", err)
	}
	return buf.Bytes(), nil
}

// Reminder is a reminder read back from a raw message.
type Reminder struct {
	Subject string
	To      []string
	TaskID  string
	Body    string
}

// Parse reads a message produced by Compose.
func Parse(raw []byte) (Reminder, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return Reminder{}, fmt.Errorf("reading message: %w", err)
	}
	defer mr.Close()

	var r Reminder
	if r.Subject, err = mr.Header.Subject(); err != nil {
		return Reminder{}, fmt.Errorf("reading subject: %w", err)
	}
	to, err := mr.Header.AddressList("To")
	if err != nil {
		return Reminder{}, fmt.Errorf("reading recipients: %w", err)
	}
	for _, a := range to {
		r.To = append(r.To, a.Address)
	}
	r.TaskID = mr.Header.Get(TaskHeader)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return r, fmt.Errorf("reading body: %w", err)
		}
		if h, ok := part.Header.(*mail.InlineHeader); ok {
			ct, _, _ := h.ContentType()
			if !strings.HasPrefix(ct, "text/plain") {
				continue
			}
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return r, fmt.Errorf("reading body: %w", err)
			}
			r.Body = strings.TrimRight(string(body), "\r\n")
		}
	}
	return r, nil
}
