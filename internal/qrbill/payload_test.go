package qrbill

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-orders/internal/billing"
	"github.com/shopspring/decimal"
)

func sampleInput(mode Mode) PayloadInput {
	return PayloadInput{
		Amount: decimal.RequireFromString("118.1"),
		Creditor: Creditor{
			Mode:    mode,
			QRIBAN:  "CH44 3199 9123 0008 8901 2",
			IBAN:    "CH93 0076 2011 6238 5295 7",
			Name:    "Velo Werkstatt GmbH",
			Line1:   "Bahnhofstrasse 1",
			Line2:   "8001 Zürich",
			Country: "CH",
		},
		Debtor: Debtor{
			FirstName: "Anna",
			LastName:  "Muster",
			Line1:     "Dorfweg 3",
			Postcode:  "3000",
			City:      "Bern",
			Country:   "CH",
		},
		Reference:   "00 00000 00000 00000 00001 00002",
		Message:     "Order 1",
		BillingInfo: "//S1/10/1/11/260301/31/260301/32/8.1:100.00",
	}
}

func TestBuildQRR(t *testing.T) {
	p, err := Build(sampleInput(ModeQRR))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(p.String(), "\n")
	if len(lines) != PayloadLines {
		t.Fatalf("got %d lines, want %d", len(lines), PayloadLines)
	}
	want := map[int]string{
		0:  "SPC",
		1:  "0200",
		2:  "1",
		3:  "CH4431999123000889012",
		4:  "K",
		5:  "Velo Werkstatt GmbH",
		7:  "8001 Zürich",
		8:  "",
		9:  "",
		10: "CH",
		18: "118.10",
		19: "CHF",
		20: "K",
		21: "Anna Muster",
		22: "Dorfweg 3",
		23: "3000 Bern",
		26: "CH",
		27: "QRR",
		28: "000000000000000000000100002",
		29: "Order 1",
		30: "EPD",
		31: "//S1/10/1/11/260301/31/260301/32/8.1:100.00",
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i+1, lines[i], w)
		}
	}
	for i := 11; i <= 17; i++ {
		if lines[i] != "" {
			t.Errorf("ultimate creditor line %d = %q, want blank", i+1, lines[i])
		}
	}
}

func TestBuildNON(t *testing.T) {
	in := sampleInput(ModeNON)
	in.Debtor.Company = "Muster AG"
	p, err := Build(in)
	if err != nil {
		t.Fatal(err)
	}
	if p[3] != "CH9300762011623852957" {
		t.Errorf("iban line = %q", p[3])
	}
	if p[21] != "Muster AG" {
		t.Errorf("debtor name = %q", p[21])
	}
	if p[27] != "NON" || p[28] != "" {
		t.Errorf("reference lines = %q %q", p[27], p[28])
	}
}

func TestBuildPreconditions(t *testing.T) {
	in := sampleInput(ModeQRR)
	in.Creditor.QRIBAN = " "
	if _, err := Build(in); !errors.Is(err, ErrMissingIBAN) {
		t.Errorf("missing qr-iban err = %v", err)
	}
	in = sampleInput(ModeNON)
	in.Creditor.IBAN = ""
	if _, err := Build(in); !errors.Is(err, ErrMissingIBAN) {
		t.Errorf("missing iban err = %v", err)
	}
	in = sampleInput(ModeQRR)
	in.Reference = ""
	if _, err := Build(in); !errors.Is(err, ErrMissingReference) {
		t.Errorf("missing reference err = %v", err)
	}
	in = sampleInput(ModeQRR)
	in.Reference = "00 00000 00000 00000 00001 00003"
	if _, err := Build(in); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("bad check digit err = %v", err)
	}
	in.Reference = "12345"
	if _, err := Build(in); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("short reference err = %v", err)
	}
	in = sampleInput("SCOR")
	if _, err := Build(in); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("unknown mode err = %v", err)
	}
}

func TestBuildKeepsLineCountWithNewlines(t *testing.T) {
	in := sampleInput(ModeNON)
	in.Message = "first\nsecond"
	p, err := Build(in)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(p.String(), "\n")); n != PayloadLines {
		t.Fatalf("got %d lines", n)
	}
	if p[29] != "first second" {
		t.Errorf("message = %q", p[29])
	}
}

func TestBillingInformation(t *testing.T) {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	buckets := []billing.Bucket{
		{Rate: decimal.RequireFromString("8.1"), Amount: decimal.RequireFromString("100")},
		{Rate: decimal.Zero, Amount: decimal.RequireFromString("10")},
	}
	got := BillingInformation(BillingInfo{
		OrderID:     1,
		InvoiceDate: date,
		UID:         "CHE-116.281.710",
		Buckets:     buckets,
		Conditions:  "2:10;0:30",
	})
	want := "//S1/10/1/11/260301/30/116281710/31/260301/32/0:10.00;8.1:100.00/40/2:10;0:30"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}

	got = BillingInformation(BillingInfo{OrderID: 7, InvoiceDate: date, UID: "CHE-116.281.710 MWST"})
	if !strings.Contains(got, "/30/116281710/") {
		t.Errorf("uid with suffix = %q", got)
	}

	got = BillingInformation(BillingInfo{OrderID: 7, InvoiceDate: date})
	if got != "//S1/10/7/11/260301/31/260301/32/" {
		t.Errorf("minimal = %q", got)
	}
}

func TestEncodePNG(t *testing.T) {
	p, err := Build(sampleInput(ModeQRR))
	if err != nil {
		t.Fatal(err)
	}
	data, err := EncodePNG(p.String(), 0)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultImageSize || b.Dy() != DefaultImageSize {
		t.Fatalf("bounds = %v", b)
	}
	r, g, b, _ := img.At(DefaultImageSize/2, DefaultImageSize/2).RGBA()
	wr, wg, wb, _ := color.White.RGBA()
	if r != wr || g != wg || b != wb {
		t.Errorf("center pixel should be the white cross")
	}
	if _, err := EncodePNG(p.String(), 10); !errors.Is(err, ErrImageTooSmall) {
		t.Errorf("tiny image err = %v", err)
	}
}
