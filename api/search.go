package api

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/internal/conv"
)

// MatchAll is the query used when no filter narrows the search.
const MatchAll = "true"

// Unassigned is the assignee sentinel matching issues without an assignee.
const Unassigned = "Unassigned"

// Filter is a structured issue filter rendered into the tracker query language.
type Filter struct {
	Project       string
	Reporter      string
	Assignee      string
	State         string
	Priority      string
	Text          string
	CreatedAfter  string
	CreatedBefore string
	UpdatedAfter  string
	UpdatedBefore string
	// CustomFields maps field names to a string, number, bool or list value; nil values are dropped.
	CustomFields map[string]interface{}
}

// Query renders the filter; an empty filter yields MatchAll.
func (f *Filter) Query() string {
	var clauses []string
	add := func(clause string) {
		clauses = append(clauses, clause)
	}
	if f.Project != "" {
		add("project: " + quote(f.Project))
	}
	if f.Reporter != "" {
		add("reporter: " + quote(f.Reporter))
	}
	if f.Assignee != "" {
		if strings.EqualFold(f.Assignee, Unassigned) {
			add("assignee: " + Unassigned)
		} else {
			add("assignee: " + quote(f.Assignee))
		}
	}
	if f.State != "" {
		add("State: " + quote(f.State))
	}
	if f.Priority != "" {
		add("Priority: " + quote(f.Priority))
	}
	if f.Text != "" {
		add("summary: " + quote(f.Text) + " description: " + quote(f.Text))
	}
	if f.CreatedAfter != "" {
		add("created: " + f.CreatedAfter + " ..")
	}
	if f.CreatedBefore != "" {
		add("created: .. " + f.CreatedBefore)
	}
	if f.UpdatedAfter != "" {
		add("updated: " + f.UpdatedAfter + " ..")
	}
	if f.UpdatedBefore != "" {
		add("updated: .. " + f.UpdatedBefore)
	}
	clauses = append(clauses, CustomFieldClauses(f.CustomFields)...)
	if len(clauses) == 0 {
		return MatchAll
	}
	return strings.Join(clauses, " ")
}

// CustomFieldClauses renders field equalities in name order.
func CustomFieldClauses(fields map[string]interface{}) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var clauses []string
	for _, name := range names {
		if clause, ok := customFieldClause(name, fields[name]); ok {
			clauses = append(clauses, clause)
		}
	}
	return clauses
}

func customFieldClause(name string, value interface{}) (string, bool) {
	switch actual := value.(type) {
	case nil:
		return "", false
	case string:
		return name + ": " + quote(actual), true
	case bool:
		return name + ": " + strconv.FormatBool(actual), true
	case json.Number:
		return name + ": " + actual.String(), true
	}
	if conv.IsNumber(value) {
		return name + ": " + conv.AsString(value), true
	}
	if items, ok := asList(value); ok {
		quoted := make([]string, 0, len(items))
		for _, item := range items {
			if item == nil {
				continue
			}
			quoted = append(quoted, quote(conv.AsString(item)))
		}
		return fmt.Sprintf("%v in (%v)", name, strings.Join(quoted, ", ")), true
	}
	return name + ": " + quote(conv.AsString(value)), true
}

func asList(value interface{}) ([]interface{}, bool) {
	if items, ok := value.([]interface{}); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]interface{}, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}
