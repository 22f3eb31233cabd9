// Package camt reads ISO 20022 camt.053 bank-to-customer statements and
// extracts the booked entries with their structured creditor references.
package camt

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNoStatement         = errors.New("document holds no camt.053 statement")
	ErrBatchWithoutAmounts = errors.New("batch booking without transaction amounts")
)

// Direction of an entry seen from the account holder.
type Direction string

const (
	Credit Direction = "CRDT"
	Debit  Direction = "DBIT"
)

// Entry is one booked statement line reduced to what payment matching needs.
type Entry struct {
	StatementID string
	Amount      decimal.Decimal
	Currency    string
	Direction   Direction
	BookingDate time.Time
	// References holds the structured creditor references of the entry, spaces
	// removed. Batch bookings are split into one Entry per transaction.
	References []string
	// Info is the unstructured remittance information, if any.
	Info string
}

// IsCredit reports whether the entry is money received.
func (e Entry) IsCredit() bool { return e.Direction == Credit }

type document struct {
	Statements []statement `xml:"BkToCstmrStmt>Stmt"`
}

type statement struct {
	ID      string  `xml:"Id"`
	Entries []entry `xml:"Ntry"`
}

type amount struct {
	Value    string `xml:",chardata"`
	Currency string `xml:"Ccy,attr"`
}

type date struct {
	Dt   string `xml:"Dt"`
	DtTm string `xml:"DtTm"`
}

type entry struct {
	Amount      amount        `xml:"Amt"`
	Indicator   string        `xml:"CdtDbtInd"`
	Status      status        `xml:"Sts"`
	BookingDate date          `xml:"BookgDt"`
	Details     []transaction `xml:"NtryDtls>TxDtls"`
	Info        string        `xml:"AddtlNtryInf"`
}

type status struct {
	Text string `xml:",chardata"`
	Code string `xml:"Cd"`
}

type transaction struct {
	Amount     *amount  `xml:"Amt"`
	TxAmount   *amount  `xml:"AmtDtls>TxAmt>Amt"`
	References []string `xml:"RmtInf>Strd>CdtrRefInf>Ref"`
	Ustrd      []string `xml:"RmtInf>Ustrd"`
}

// amount returns the transaction's own amount, if the bank reported one.
func (t transaction) amount() *amount {
	if t.Amount != nil {
		return t.Amount
	}
	return t.TxAmount
}

// Parse decodes a camt.053 document. Entries that are not booked are skipped.
func Parse(r io.Reader) ([]Entry, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode camt.053: %w", err)
	}
	if len(doc.Statements) == 0 {
		return nil, ErrNoStatement
	}

	var out []Entry
	for _, st := range doc.Statements {
		for i, n := range st.Entries {
			if !booked(n) {
				continue
			}
			amt, err := decimal.NewFromString(strings.TrimSpace(n.Amount.Value))
			if err != nil {
				return nil, fmt.Errorf("statement %s entry %d amount %q: %w", st.ID, i+1, n.Amount.Value, err)
			}
			day, err := n.BookingDate.parse()
			if err != nil {
				return nil, fmt.Errorf("statement %s entry %d booking date: %w", st.ID, i+1, err)
			}
			e := Entry{
				StatementID: st.ID,
				Amount:      amt,
				Currency:    n.Amount.Currency,
				Direction:   Direction(strings.TrimSpace(n.Indicator)),
				BookingDate: day,
				Info:        strings.TrimSpace(n.Info),
			}
			if len(n.Details) > 1 {
				split, err := splitBatch(e, n.Details)
				if err != nil {
					return nil, fmt.Errorf("statement %s entry %d: %w", st.ID, i+1, err)
				}
				out = append(out, split...)
				continue
			}
			for _, tx := range n.Details {
				addDetails(&e, tx)
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// splitBatch turns a batch booking into one entry per transaction. Every
// transaction has to carry its own amount, otherwise the references would
// all be matched against the batch total.
func splitBatch(e Entry, details []transaction) ([]Entry, error) {
	out := make([]Entry, 0, len(details))
	for j, tx := range details {
		a := tx.amount()
		if a == nil {
			return nil, fmt.Errorf("transaction %d: %w", j+1, ErrBatchWithoutAmounts)
		}
		amt, err := decimal.NewFromString(strings.TrimSpace(a.Value))
		if err != nil {
			return nil, fmt.Errorf("transaction %d amount %q: %w", j+1, a.Value, err)
		}
		part := e
		part.Amount = amt
		if a.Currency != "" {
			part.Currency = a.Currency
		}
		part.References = nil
		addDetails(&part, tx)
		out = append(out, part)
	}
	return out, nil
}

func addDetails(e *Entry, tx transaction) {
	for _, ref := range tx.References {
		if ref = strings.Join(strings.Fields(ref), ""); ref != "" {
			e.References = append(e.References, ref)
		}
	}
	if len(tx.Ustrd) > 0 {
		e.Info = strings.TrimSpace(strings.Join(tx.Ustrd, " "))
	}
}

// booked accepts the plain <Sts>BOOK</Sts> of camt.053.001.04 and the
// <Sts><Cd>BOOK</Cd></Sts> form of later versions.
func booked(n entry) bool {
	st := strings.TrimSpace(n.Status.Code)
	if st == "" {
		st = strings.TrimSpace(n.Status.Text)
	}
	return st == "" || st == "BOOK"
}

func (d date) parse() (time.Time, error) {
	if s := strings.TrimSpace(d.Dt); s != "" {
		return time.Parse("2006-01-02", s)
	}
	if s := strings.TrimSpace(d.DtTm); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02T15:04:05", s)
	}
	return time.Time{}, errors.New("missing date")
}
