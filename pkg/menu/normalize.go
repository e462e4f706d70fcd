package menu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// DefaultDayListField is the key under each menu entity that holds its day entries.
// Some vendor deployments use "MenuDays" instead; see WithDayListField.
const DefaultDayListField = "OrderDays"

// Normalizer converts vendor payloads into a canonical Menu.
// It is stateless between calls and safe for concurrent use.
type Normalizer struct {
	logger       *slog.Logger
	dayListField string
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithDayListField sets the menu-entity key that holds day entries.
func WithDayListField(name string) NormalizerOption {
	return func(n *Normalizer) {
		if name = strings.TrimSpace(name); name != "" {
			n.dayListField = name
		}
	}
}

// WithLogger sets the logger used for skip diagnostics.
func WithLogger(l *slog.Logger) NormalizerOption {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewNormalizer creates a Normalizer with the given options.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		dayListField: DefaultDayListField,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// DayListField returns the configured day-list key.
func (n *Normalizer) DayListField() string {
	return n.dayListField
}

// Result is the outcome of a normalization.
type Result struct {
	Menu    Menu
	Skipped []*ItemParseError
}

// dayEntry is one vendor day. MenuItems stays raw so each record decodes on its own.
type dayEntry struct {
	Date      string          `json:"Date"`
	MenuItems json.RawMessage `json:"MenuItems"`
}

// itemRecord mirrors a vendor item. Pointers distinguish absent from empty.
type itemRecord struct {
	FormalName  *string         `json:"FormalName"`
	Meal        *string         `json:"Meal"`
	Course      *string         `json:"Course"`
	Description *string         `json:"Description"`
	Ingredients *string         `json:"Ingredients"`
	Calories    json.RawMessage `json:"Calories"`
}

// Normalize finds the day entry whose Date equals dateTimeKey and builds a Menu
// from its item records. Returns ErrNotFound if no day entry matches.
func (n *Normalizer) Normalize(payload *RawPayload, dateTimeKey string) (*Result, error) {
	if payload == nil {
		return nil, ErrNoPayload
	}

	day, err := n.findDay(payload, dateTimeKey)
	if err != nil {
		return nil, err
	}

	records, err := decodeItems(day.MenuItems)
	if err != nil {
		return nil, fmt.Errorf("%w: day %s: %v", ErrMalformedPayload, dateTimeKey, err)
	}

	res := &Result{Menu: Menu{}}
	for i, raw := range records {
		item, meal, course, skip := parseItem(i, raw)
		if skip != nil {
			res.Skipped = append(res.Skipped, skip)
			n.logger.Debug("menu item skipped",
				slog.Int("index", skip.Index),
				slog.String("reason", string(skip.Reason)),
				slog.String("name", skip.Name),
				slog.String("field", skip.Field),
			)
			continue
		}
		res.Menu.Add(meal, course, item)
	}

	n.logger.Info("menu normalized",
		slog.String("date", dateTimeKey),
		slog.Int("records", len(records)),
		slog.Int("items", res.Menu.Len()),
		slog.Int("skipped", len(res.Skipped)),
	)

	return res, nil
}

// findDay scans menu entities in order and returns the first matching day entry.
func (n *Normalizer) findDay(payload *RawPayload, key string) (*dayEntry, error) {
	sawDayList := false
	for mi, rawEntity := range payload.Menus {
		var entity map[string]json.RawMessage
		if err := json.Unmarshal(rawEntity, &entity); err != nil {
			n.logger.Warn("menu entity is not an object", slog.Int("menu", mi), slog.Any("error", err))
			continue
		}

		rawDays, ok := entity[n.dayListField]
		if !ok || isNull(rawDays) {
			continue
		}
		sawDayList = true

		var days []json.RawMessage
		if err := json.Unmarshal(rawDays, &days); err != nil {
			n.logger.Warn("day list is not an array",
				slog.Int("menu", mi),
				slog.String("field", n.dayListField),
				slog.Any("error", err),
			)
			continue
		}

		for di, rawDay := range days {
			var day dayEntry
			if err := json.Unmarshal(rawDay, &day); err != nil {
				n.logger.Debug("day entry skipped", slog.Int("menu", mi), slog.Int("day", di), slog.Any("error", err))
				continue
			}
			if day.Date == key {
				return &day, nil
			}
		}
	}

	if !sawDayList {
		n.logger.Warn("no menu entity carries the day list field", slog.String("field", n.dayListField))
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

func decodeItems(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// parseItem decodes one record. Exactly one of item or skip is meaningful.
func parseItem(index int, raw json.RawMessage) (MenuItem, string, string, *ItemParseError) {
	var rec itemRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return MenuItem{}, "", "", &ItemParseError{Index: index, Reason: SkipMalformed, Err: err}
	}

	if rec.FormalName == nil || strings.TrimSpace(*rec.FormalName) == "" {
		return MenuItem{}, "", "", &ItemParseError{Index: index, Reason: SkipBlankName}
	}
	name := *rec.FormalName

	missing := func(field string) *ItemParseError {
		return &ItemParseError{Index: index, Name: name, Field: field, Reason: SkipMissingField}
	}

	switch {
	case rec.Meal == nil:
		return MenuItem{}, "", "", missing("Meal")
	case rec.Course == nil:
		return MenuItem{}, "", "", missing("Course")
	case rec.Description == nil:
		return MenuItem{}, "", "", missing("Description")
	case rec.Ingredients == nil:
		return MenuItem{}, "", "", missing("Ingredients")
	case len(rec.Calories) == 0 || isNull(rec.Calories):
		return MenuItem{}, "", "", missing("Calories")
	}

	calories, err := parseCalories(rec.Calories)
	if err != nil {
		return MenuItem{}, "", "", &ItemParseError{
			Index:  index,
			Name:   name,
			Field:  "Calories",
			Reason: SkipInvalidCalories,
			Err:    err,
		}
	}

	return MenuItem{
		Name:        name,
		Description: *rec.Description,
		Ingredients: *rec.Ingredients,
		Calories:    calories,
	}, *rec.Meal, *rec.Course, nil
}

var errNotInteger = errors.New("calories is not an integer")

// parseCalories accepts a JSON string holding an integer or an integral JSON number.
func parseCalories(raw json.RawMessage) (int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, errors.Join(errNotInteger, err)
		}
		return v, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var num json.Number
	if err := dec.Decode(&num); err != nil {
		return 0, errors.Join(errNotInteger, err)
	}
	v, err := num.Int64()
	if err != nil {
		return 0, errors.Join(errNotInteger, err)
	}
	return int(v), nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
