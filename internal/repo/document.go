package repo

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/BuzzLyutic/task-cli/internal/model"
)

//go:embed schema/tasks.schema.json
var storeSchemaSource string

const storeSchemaURL = "https://task-cli.local/tasks.schema.json"

var storeSchema = jsonschema.MustCompileString(storeSchemaURL, storeSchemaSource)

// document - содержимое файла: id -> задача.
// В памяти ключи int64, на диске строки; конвертация только здесь.
type document map[int64]model.Task

func (d document) ids() []int64 {
	ids := make([]int64, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// nextID = max(id) + 1, либо 1 для пустого хранилища.
// При max(id) == MaxInt64 следующего id нет: переполнение дало бы отрицательный ключ.
func (d document) nextID() (int64, error) {
	var maxID int64
	for id := range d {
		if id > maxID {
			maxID = id
		}
	}
	if maxID == math.MaxInt64 {
		return 0, ErrorIDsExhausted
	}
	return maxID + 1, nil
}

func decodeDocument(data []byte) (document, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if err := storeSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var byKey map[string]model.Task
	if err := json.Unmarshal(data, &byKey); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	doc := make(document, len(byKey))
	for key, t := range byKey {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("task key %q: %w", key, err)
		}
		if t.ID != id {
			return nil, fmt.Errorf("task key %q holds id %d", key, t.ID)
		}
		doc[id] = t
	}
	return doc, nil
}

// encode пишет задачи по возрастанию id, отступ 2 пробела, без \uXXXX и HTML-экранирования
func (d document) encode() ([]byte, error) {
	var compact bytes.Buffer
	enc := json.NewEncoder(&compact)
	enc.SetEscapeHTML(false)

	compact.WriteByte('{')
	for i, id := range d.ids() {
		if i > 0 {
			compact.WriteByte(',')
		}
		compact.WriteString(strconv.Quote(strconv.FormatInt(id, 10)))
		compact.WriteByte(':')
		if err := enc.Encode(d[id]); err != nil {
			return nil, fmt.Errorf("encode task %d: %w", id, err)
		}
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
