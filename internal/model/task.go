package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout - формат дат в файле задач (DD.MM.YYYY HH:MM:SS)
const TimestampLayout = "02.01.2006 15:04:05"

var ErrInvalidStatus = errors.New("invalid status")

// Status - закрытый набор статусов задачи. Нулевое значение - todo.
type Status uint8

const (
	StatusTodo Status = iota
	StatusInProgress
	StatusDone
)

var statusNames = [...]string{
	StatusTodo:       "todo",
	StatusInProgress: "in-progress",
	StatusDone:       "done",
}

func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if name == s {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s Status) Valid() bool {
	return int(s) < len(statusNames)
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Timestamp хранится с точностью до секунды, как и в файле
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(TimestampLayout)
}

// MarshalJSON перекрывает метод встроенного time.Time (RFC 3339)
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	return ts.UnmarshalText([]byte(s))
}

func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

func (ts *Timestamp) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	ts.Time = t
	return nil
}

type Task struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt,omitzero"`
}

// NewTask собирает новую задачу; ID назначает хранилище
func NewTask(description string, now time.Time) Task {
	ts := NewTimestamp(now)
	return Task{
		Description: description,
		Status:      StatusTodo,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// Touch обновляет updatedAt при любой мутации
func (t *Task) Touch(now time.Time) {
	t.UpdatedAt = NewTimestamp(now)
}

type TaskFilter struct {
	Status *Status
}

func (f TaskFilter) Match(t Task) bool {
	return f.Status == nil || *f.Status == t.Status
}
