// Package reference translates between the marketplace's domain values and
// the numeric reference codes of the external CRM.
package reference

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type TableKey string

const (
	TableTransportBrand   TableKey = "transportBrand"
	TableTransportModel   TableKey = "transportModel"
	TableRiskClass        TableKey = "riskClass"
	TableFixtures         TableKey = "fixtures"
	TableLoadingTypes     TableKey = "loadingTypes"
	TablePaymentTypes     TableKey = "paymentTypes"
	TableOrderStatus      TableKey = "orderStatus"
	TableOrderStage       TableKey = "orderStage"
	TableDedicatedMachine TableKey = "dedicatedMachine"
	TableDestinationType  TableKey = "destinationType"
	TableTransportPayload TableKey = "transportPayload"
	TableTransportType    TableKey = "transportType"
)

var (
	ErrUnknownTable = errors.New("unknown reference table")
	ErrDuplicateID  = errors.New("duplicate reference id")
	ErrEmptyID      = errors.New("reference entry without id")
)

var knownTables = []TableKey{
	TableTransportBrand, TableTransportModel, TableRiskClass, TableFixtures,
	TableLoadingTypes, TablePaymentTypes, TableOrderStatus, TableOrderStage,
	TableDedicatedMachine, TableDestinationType, TableTransportPayload,
	TableTransportType,
}

func TableKeys() []TableKey {
	return slices.Clone(knownTables)
}

func IsKnownTable(key TableKey) bool {
	return slices.Contains(knownTables, key)
}

// Alias is an optional entry alias that the CRM sends either as a JSON
// string or as a JSON number.
type Alias struct {
	text    string
	numeric bool
	present bool
}

func TextAlias(s string) Alias {
	return Alias{text: s, present: true}
}

func NumericAlias(f float64) Alias {
	return Alias{text: strconv.FormatFloat(f, 'f', -1, 64), numeric: true, present: true}
}

func (a Alias) String() string  { return a.text }
func (a Alias) IsSet() bool     { return a.present }
func (a Alias) IsNumeric() bool { return a.numeric }

// Float parses the alias as a number regardless of its JSON type.
func (a Alias) Float() (float64, bool) {
	if !a.present {
		return 0, false
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(a.text), 64)

	return f, err == nil
}

func (a *Alias) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*a = Alias{}

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*a = TextAlias(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("alias must be a string or a number: %w", err)
	}

	*a = Alias{text: n.String(), numeric: true, present: true}

	return nil
}

func (a Alias) MarshalJSON() ([]byte, error) {
	switch {
	case !a.present:
		return []byte("null"), nil
	case a.numeric:
		return []byte(a.text), nil
	default:
		return json.Marshal(a.text)
	}
}

type Entry struct {
	ID    string `json:"id"`
	Value string `json:"value,omitempty"`
	Alias Alias  `json:"alias"`
}

// UnmarshalJSON accepts numeric ids next to string ids.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Value string          `json:"value"`
		Alias Alias           `json:"alias"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := strings.TrimSpace(string(raw.ID))
	if strings.HasPrefix(id, `"`) {
		if err := json.Unmarshal(raw.ID, &id); err != nil {
			return err
		}
	}

	if id == "null" {
		id = ""
	}

	*e = Entry{ID: id, Value: raw.Value, Alias: raw.Alias}

	return nil
}

type Table []Entry

// index is the lookup structure of one table, built once.
type index struct {
	entries        Table
	byID           map[string]int
	byValue        map[string]int
	byAlias        map[string]int
	numericAliases bool
}

// Catalog is the immutable set of reference tables. It is safe for
// concurrent readers.
type Catalog struct {
	tables map[TableKey]*index
}

func NewCatalog(tables map[TableKey]Table) (*Catalog, error) {
	catalog := &Catalog{tables: make(map[TableKey]*index, len(tables))}

	for key, table := range tables {
		if !IsKnownTable(key) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTable, key)
		}

		idx, err := buildIndex(table)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", key, err)
		}

		catalog.tables[key] = idx
	}

	return catalog, nil
}

func buildIndex(table Table) (*index, error) {
	idx := &index{
		entries:        slices.Clone(table),
		byID:           make(map[string]int, len(table)),
		byValue:        make(map[string]int, len(table)),
		byAlias:        make(map[string]int, len(table)),
		numericAliases: true,
	}

	aliases := 0

	for i, entry := range idx.entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("%w at position %d", ErrEmptyID, i)
		}

		if _, exists := idx.byID[entry.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, entry.ID)
		}

		idx.byID[entry.ID] = i

		if _, exists := idx.byValue[entry.Value]; entry.Value != "" && !exists {
			idx.byValue[entry.Value] = i
		}

		if !entry.Alias.IsSet() {
			continue
		}

		aliases++

		if _, ok := entry.Alias.Float(); !ok {
			idx.numericAliases = false
		}

		if _, exists := idx.byAlias[entry.Alias.String()]; !exists {
			idx.byAlias[entry.Alias.String()] = i
		}
	}

	if aliases == 0 {
		idx.numericAliases = false
	}

	return idx, nil
}

// Table returns a copy of the named table.
func (c *Catalog) Table(key TableKey) (Table, bool) {
	idx, ok := c.lookup(key)
	if !ok {
		return nil, false
	}

	return slices.Clone(idx.entries), true
}

func (c *Catalog) Tables() []TableKey {
	keys := make([]TableKey, 0, len(c.tables))
	for key := range c.tables {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

// HasID reports whether code is an external id of the named table.
func (c *Catalog) HasID(key TableKey, code string) bool {
	idx, ok := c.lookup(key)
	if !ok {
		return false
	}

	_, found := idx.byID[code]

	return found
}

func (c *Catalog) lookup(key TableKey) (*index, bool) {
	if c == nil {
		return nil, false
	}

	idx, ok := c.tables[key]

	return idx, ok
}
