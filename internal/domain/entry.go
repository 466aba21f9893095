package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// EntityType is the dataset section an entry belongs to
type EntityType string

const (
	EntityCompany     EntityType = "Company"
	EntityIncident    EntityType = "Incident"
	EntityProduct     EntityType = "Product"
	EntityProductLine EntityType = "ProductLine"
)

// DatasetSections lists the entity types in the order they appear in the dataset file
var DatasetSections = []EntityType{
	EntityCompany,
	EntityIncident,
	EntityProduct,
	EntityProductLine,
}

// Valid reports whether t is one of the known entity types
func (t EntityType) Valid() bool {
	switch t {
	case EntityCompany, EntityIncident, EntityProduct, EntityProductLine:
		return true
	default:
		return false
	}
}

// Dataset column names with a dedicated Entry field
const (
	fieldType        = "_type"
	fieldPageID      = "PageID"
	fieldPageName    = "PageName"
	fieldWebsite     = "Website"
	fieldDescription = "Description"
	fieldCompany     = "Company"
	fieldProduct     = "Product"
	fieldProductLine = "ProductLine"
	fieldStatus      = "Status"
	fieldStartDate   = "StartDate"
)

// Entry is one dataset record.
//
// Company, Product and ProductLine are free-text references to other
// entries by name and may hold several names separated by ",", ";" or "|".
// Status and StartDate are only populated for incidents. Every other
// dataset column is preserved in Extra and written back out unchanged.
type Entry struct {
	Type        EntityType
	PageID      string
	PageName    string
	Website     string
	Description string
	Company     string
	Product     string
	ProductLine string
	Status      string
	StartDate   string
	Extra       map[string]any
}

// ID returns the stable identifier of the entry, falling back to
// "Type:PageName" when the dataset row has no PageID
func (e Entry) ID() string {
	if id := strings.TrimSpace(e.PageID); id != "" {
		return id
	}
	return string(e.Type) + ":" + e.PageName
}

// Key uniquely identifies the entry across all sections
func (e Entry) Key() string {
	return string(e.Type) + ":" + e.ID()
}

// PrimaryStatus returns the first non-empty token of the comma separated Status field
func (e Entry) PrimaryStatus() string {
	for _, token := range strings.Split(e.Status, ",") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	return ""
}

// EntryFromMap builds an entry from a loosely typed dataset row.
// Reference fields that are not strings are treated as empty.
func EntryFromMap(entityType EntityType, row map[string]any) Entry {
	entry := Entry{
		Type:        entityType,
		PageID:      scalarString(row[fieldPageID]),
		PageName:    scalarString(row[fieldPageName]),
		Website:     stringOnly(row[fieldWebsite]),
		Description: stringOnly(row[fieldDescription]),
		Company:     stringOnly(row[fieldCompany]),
		Product:     stringOnly(row[fieldProduct]),
		ProductLine: stringOnly(row[fieldProductLine]),
	}
	if entityType == EntityIncident {
		entry.Status = stringOnly(row[fieldStatus])
		entry.StartDate = stringOnly(row[fieldStartDate])
	}

	for key, value := range row {
		if isEntryField(key, entityType) {
			continue
		}
		if entry.Extra == nil {
			entry.Extra = make(map[string]any)
		}
		entry.Extra[key] = value
	}

	return entry
}

// MarshalJSON writes the entry in the dataset's flat column layout
func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+10)
	for key, value := range e.Extra {
		out[key] = value
	}

	out[fieldType] = e.Type
	out[fieldPageID] = e.PageID
	out[fieldPageName] = e.PageName
	setIfPresent(out, fieldWebsite, e.Website)
	setIfPresent(out, fieldDescription, e.Description)
	setIfPresent(out, fieldCompany, e.Company)
	setIfPresent(out, fieldProduct, e.Product)
	setIfPresent(out, fieldProductLine, e.ProductLine)
	setIfPresent(out, fieldStatus, e.Status)
	setIfPresent(out, fieldStartDate, e.StartDate)

	return json.Marshal(out)
}

// UnmarshalJSON reads an entry written by MarshalJSON
func (e *Entry) UnmarshalJSON(data []byte) error {
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	entityType, _ := row[fieldType].(string)
	*e = EntryFromMap(EntityType(entityType), row)
	return nil
}

func isEntryField(key string, entityType EntityType) bool {
	switch key {
	case fieldType, fieldPageID, fieldPageName, fieldWebsite, fieldDescription,
		fieldCompany, fieldProduct, fieldProductLine:
		return true
	case fieldStatus, fieldStartDate:
		return entityType == EntityIncident
	default:
		return false
	}
}

func setIfPresent(out map[string]any, key, value string) {
	if value != "" {
		out[key] = value
	}
}

func stringOnly(value any) string {
	s, _ := value.(string)
	return s
}

// scalarString also accepts numeric identifiers, which some dataset exports emit
func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
