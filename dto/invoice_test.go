package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceDocument_JSONKeys(t *testing.T) {
	doc := NewInvoiceDocument()
	doc.DocumentNumber = "SETT-1"
	doc.IssueDate = NewDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	doc.InvoiceItems = append(doc.InvoiceItems, InvoiceLineItem{ItemCode: "A1", Quantity: 2, Total: "10.5"})

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, "SETT-1", m["DocumentNumber"])
	assert.Equal(t, "0.00", m["Amount"])
	assert.Equal(t, "2024-03-05T00:00:00", m["IssueDate"])
	assert.Equal(t, "0001-01-01T00:00:00", m["DueDate"])
	items := m["InvoiceItems"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "A1", items[0].(map[string]interface{})["ItemCode"])
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-31T10:20:30"`), &d))
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, 30, d.Second())

	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"31/01/2024"`), &d))
}

func TestRunSummary(t *testing.T) {
	s := NewRunSummary("ap@example.com", time.Now())
	s.Add("processed")
	s.Add("processed")
	s.Add("error")
	assert.Equal(t, 3, s.Total())
	assert.Equal(t, 2, s.Outcomes["processed"])
}
