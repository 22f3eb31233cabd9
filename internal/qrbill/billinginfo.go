package qrbill

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-orders/internal/billing"
	"github.com/diewo77/go-orders/internal/money"
)

const swicoDate = "060102"

// BillingInfo holds the data of the structured "//S1" billing information line.
type BillingInfo struct {
	OrderID     uint64
	InvoiceDate time.Time
	// UID is printed under /30/ as its 9 digits; empty omits the tag.
	UID        string
	VATDate    time.Time
	Buckets    []billing.Bucket
	Conditions string
}

// BillingInformation renders
// //S1/10/<order>/11/<YYMMDD>[/30/<uid>]/31/<YYMMDD>/32/<rate:amount;...>[/40/<conditions>].
func BillingInformation(info BillingInfo) string {
	var b strings.Builder
	b.WriteString("//S1/10/")
	b.WriteString(strconv.FormatUint(info.OrderID, 10))
	b.WriteString("/11/")
	b.WriteString(info.InvoiceDate.Format(swicoDate))
	if uid := UIDDigits(info.UID); uid != "" {
		b.WriteString("/30/")
		b.WriteString(uid)
	}
	vatDate := info.VATDate
	if vatDate.IsZero() {
		vatDate = info.InvoiceDate
	}
	b.WriteString("/31/")
	b.WriteString(vatDate.Format(swicoDate))

	buckets := append([]billing.Bucket(nil), info.Buckets...)
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Rate.LessThan(buckets[j].Rate) })
	parts := make([]string, 0, len(buckets))
	for _, bk := range buckets {
		parts = append(parts, bk.Key()+":"+money.Format(bk.Amount))
	}
	b.WriteString("/32/")
	b.WriteString(strings.Join(parts, ";"))

	if c := strings.TrimSpace(info.Conditions); c != "" {
		b.WriteString("/40/")
		b.WriteString(c)
	}
	return b.String()
}
