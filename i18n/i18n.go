// Package i18n translates invoice labels and violation codes. The language is
// always passed explicitly; there is no process-wide active locale.
package i18n

import (
	"fmt"
	"strings"
)

const DefaultLanguage = "de"

// Supported lists the QR-bill languages.
var Supported = []string{"de", "fr", "it", "en"}

var messages = map[string]map[string]string{
	"de": {
		"required":           "Pflichtfeld",
		"out_of_range":       "Ausserhalb des gültigen Bereichs",
		"invalid_format":     "Ungültiges Format",
		"invoice":            "Rechnung",
		"order":              "Bestellung",
		"date":               "Datum",
		"description":        "Beschreibung",
		"quantity":           "Menge",
		"unit_price":         "Preis",
		"discount":           "Rabatt",
		"amount":             "Betrag",
		"subtotal":           "Zwischensumme",
		"vat":                "MWST",
		"total_without_vat":  "Total exkl. MWST",
		"total":              "Total",
		"payment_conditions": "Zahlungsbedingungen",
		"payable_until":      "zahlbar bis %s: CHF %s",
		"receipt":            "Empfangsschein",
		"payment_part":       "Zahlteil",
		"account_payable_to": "Konto / Zahlbar an",
		"reference":          "Referenz",
		"additional_info":    "Zusätzliche Informationen",
		"payable_by":         "Zahlbar durch",
		"currency":           "Währung",
		"acceptance_point":   "Annahmestelle",
		"mail_subject":       "Rechnung %s",
		"mail_body":          "Guten Tag\n\nIm Anhang finden Sie die Rechnung %s über CHF %s.\n\nFreundliche Grüsse\n%s",
		"vat_report":         "MWST-Abrechnung",
		"rate":               "Satz",
	},
	"fr": {
		"required":           "Requis",
		"out_of_range":       "Hors limites",
		"invalid_format":     "Format invalide",
		"invoice":            "Facture",
		"order":              "Commande",
		"date":               "Date",
		"description":        "Description",
		"quantity":           "Quantité",
		"unit_price":         "Prix",
		"discount":           "Rabais",
		"amount":             "Montant",
		"subtotal":           "Sous-total",
		"vat":                "TVA",
		"total_without_vat":  "Total hors TVA",
		"total":              "Total",
		"payment_conditions": "Conditions de paiement",
		"payable_until":      "payable jusqu'au %s : CHF %s",
		"receipt":            "Récépissé",
		"payment_part":       "Section paiement",
		"account_payable_to": "Compte / Payable à",
		"reference":          "Référence",
		"additional_info":    "Informations supplémentaires",
		"payable_by":         "Payable par",
		"currency":           "Monnaie",
		"acceptance_point":   "Point de dépôt",
		"mail_subject":       "Facture %s",
		"mail_body":          "Bonjour\n\nVeuillez trouver ci-joint la facture %s de CHF %s.\n\nMeilleures salutations\n%s",
		"vat_report":         "Décompte TVA",
		"rate":               "Taux",
	},
	"it": {
		"required":           "Obbligatorio",
		"out_of_range":       "Fuori intervallo",
		"invalid_format":     "Formato non valido",
		"invoice":            "Fattura",
		"order":              "Ordine",
		"date":               "Data",
		"description":        "Descrizione",
		"quantity":           "Quantità",
		"unit_price":         "Prezzo",
		"discount":           "Sconto",
		"amount":             "Importo",
		"subtotal":           "Subtotale",
		"vat":                "IVA",
		"total_without_vat":  "Totale IVA esclusa",
		"total":              "Totale",
		"payment_conditions": "Condizioni di pagamento",
		"payable_until":      "pagabile entro il %s: CHF %s",
		"receipt":            "Ricevuta",
		"payment_part":       "Sezione pagamento",
		"account_payable_to": "Conto / Pagabile a",
		"reference":          "Riferimento",
		"additional_info":    "Informazioni supplementari",
		"payable_by":         "Pagabile da",
		"currency":           "Valuta",
		"acceptance_point":   "Punto di accettazione",
		"mail_subject":       "Fattura %s",
		"mail_body":          "Buongiorno\n\nIn allegato trova la fattura %s di CHF %s.\n\nCordiali saluti\n%s",
		"vat_report":         "Rendiconto IVA",
		"rate":               "Aliquota",
	},
	"en": {
		"required":           "Required",
		"out_of_range":       "Out of range",
		"invalid_format":     "Invalid format",
		"invoice":            "Invoice",
		"order":              "Order",
		"date":               "Date",
		"description":        "Description",
		"quantity":           "Quantity",
		"unit_price":         "Price",
		"discount":           "Discount",
		"amount":             "Amount",
		"subtotal":           "Subtotal",
		"vat":                "VAT",
		"total_without_vat":  "Total excl. VAT",
		"total":              "Total",
		"payment_conditions": "Payment conditions",
		"payable_until":      "payable until %s: CHF %s",
		"receipt":            "Receipt",
		"payment_part":       "Payment part",
		"account_payable_to": "Account / Payable to",
		"reference":          "Reference",
		"additional_info":    "Additional information",
		"payable_by":         "Payable by",
		"currency":           "Currency",
		"acceptance_point":   "Acceptance point",
		"mail_subject":       "Invoice %s",
		"mail_body":          "Hello\n\nPlease find attached invoice %s for CHF %s.\n\nKind regards\n%s",
		"vat_report":         "VAT report",
		"rate":               "Rate",
	},
}

// Normalize maps "fr-CH" or "FR" to a supported language, else DefaultLanguage.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if _, ok := messages[lang]; ok {
		return lang
	}
	return DefaultLanguage
}

// DetectLanguage picks the first supported language of an Accept-Language
// header.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(part, ";")
		tag = strings.ToLower(strings.TrimSpace(tag))
		if i := strings.IndexAny(tag, "-_"); i >= 0 {
			tag = tag[:i]
		}
		if _, ok := messages[tag]; ok {
			return tag
		}
	}
	return DefaultLanguage
}

// T returns the translation of key, falling back to DefaultLanguage and then
// to the key itself.
func T(lang, key string) string {
	if m, ok := messages[Normalize(lang)]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLanguage][key]; ok {
		return s
	}
	return key
}

// Tf formats the translation of key with args.
func Tf(lang, key string, args ...any) string {
	return fmt.Sprintf(T(lang, key), args...)
}
