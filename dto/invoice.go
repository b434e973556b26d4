package dto

import (
	"encoding/json"
	"time"
)

const (
	DefaultAmount  = "0.00"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// Date is a calendar timestamp serialized without zone. The zero value is the
// minimum-date sentinel and serializes as 0001-01-01T00:00:00.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: t}
}

func (d Date) String() string {
	return d.Time.Format(DateTimeLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

type InvoiceDocument struct {
	DocumentType                   string            `json:"DocumentType"`
	DocumentNumber                 string            `json:"DocumentNumber"`
	ReceiverTaxId                  string            `json:"ReceiverTaxId"`
	ReceiverTaxIdWithoutCheckDigit string            `json:"ReceiverTaxIdWithoutCheckDigit"`
	ReceiverBusinessName           string            `json:"ReceiverBusinessName"`
	SenderTaxId                    string            `json:"SenderTaxId"`
	SenderTaxIdWithoutCheckDigit   string            `json:"SenderTaxIdWithoutCheckDigit"`
	SenderBusinessName             string            `json:"SenderBusinessName"`
	RelatedDocumentNumber          string            `json:"RelatedDocumentNumber"`
	InvoicePathPDF                 string            `json:"InvoicePathPDF"`
	InvoicePathXML                 string            `json:"InvoicePathXML"`
	Amount                         string            `json:"Amount"`
	IssueDate                      Date              `json:"IssueDate"`
	DueDate                        Date              `json:"DueDate"`
	InvoiceItems                   []InvoiceLineItem `json:"InvoiceItems"`
}

// NewInvoiceDocument returns a document carrying the sentinel defaults.
func NewInvoiceDocument() *InvoiceDocument {
	return &InvoiceDocument{
		Amount:       DefaultAmount,
		InvoiceItems: []InvoiceLineItem{},
	}
}

type InvoiceLineItem struct {
	ItemCode    string `json:"ItemCode"`
	Description string `json:"Description"`
	Quantity    int    `json:"Quantity"`
	Unit        string `json:"Unit"`
	UnitPrice   string `json:"UnitPrice"`
	Subtotal    string `json:"Subtotal"`
	TaxAmount   string `json:"TaxAmount"`
	Total       string `json:"Total"`
}
