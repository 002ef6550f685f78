// Package schema maps bank-specific statement column names onto the canonical
// transaction shape consumed by the analysis core.
//
// Each supported bank gets one BankSchema entry naming its date, debit/credit,
// purpose and counterparty columns. The registry is built once at startup
// (compiled-in defaults, optionally overridden from a YAML file) and is
// read-only afterwards.
package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"
)

// BankSchema names the statement columns of one bank's extractor output.
// Empty fields mean the bank has no such column; the normalizer then walks
// its generic alias chains instead.
type BankSchema struct {
	// Label is the human-readable bank name shown in reports.
	Label string `yaml:"label"`

	// DateColumn is the operation-date column.
	DateColumn string `yaml:"date_column"`

	// DebitColumn / CreditColumn are the split unsigned amount columns.
	DebitColumn  string `yaml:"debit_column"`
	CreditColumn string `yaml:"credit_column"`

	// AmountColumn is a single signed amount column, used by banks that do
	// not split debit/credit.
	AmountColumn string `yaml:"amount_column"`

	// PurposeCodeColumn is the payment-purpose code column (КНП).
	PurposeCodeColumn string `yaml:"purpose_code_column"`

	// PurposeColumn is the free-text payment purpose / details column.
	PurposeColumn string `yaml:"purpose_column"`

	// CounterpartyColumn is the structured counterparty name column.
	CounterpartyColumn string `yaml:"counterparty_column"`

	// DescriptionPrefixes are fixed operation-type phrases this bank puts in
	// front of the counterparty label in free-text details. They are stripped
	// before counterparty extraction.
	DescriptionPrefixes []string `yaml:"description_prefixes"`
}

// DateAliases is the ordered fallback chain tried when a bank's configured
// date column is absent from a statement's rows.
var DateAliases = []string{
	"Дата",
	"date",
	"Дата операции",
	"Дата проводки",
	"Дата отражения по счету",
	"Operation date",
}

// kaspiPrefixes covers the Kaspi bank family, whose card statements prefix
// the counterparty with the operation kind ("Покупка Magnum", "Перевод Иван А.").
var kaspiPrefixes = []string{
	"Покупка ",
	"Перевод ",
	"Пополнение ",
	"Оплата ",
	"Снятие ",
}

// Registry is an immutable bank-key → BankSchema lookup table.
type Registry struct {
	banks map[string]BankSchema
}

// New builds a registry from the given schema map. The map is copied so the
// caller cannot mutate the registry afterwards.
func New(banks map[string]BankSchema) *Registry {
	copied := make(map[string]BankSchema, len(banks))
	for k, v := range banks {
		copied[k] = v
	}
	return &Registry{banks: copied}
}

// Default returns the registry for the banks the extractors currently support.
func Default() *Registry {
	return New(map[string]BankSchema{
		"kaspi_gold": {
			Label:               "Kaspi Gold",
			DateColumn:          "Дата",
			AmountColumn:        "amount",
			PurposeColumn:       "details",
			DescriptionPrefixes: kaspiPrefixes,
		},
		"kaspi_pay": {
			Label:               "Kaspi Pay",
			DateColumn:          "Дата операции",
			DebitColumn:         "Дебет",
			CreditColumn:        "Кредит",
			PurposeCodeColumn:   "КНП",
			PurposeColumn:       "Назначение платежа",
			CounterpartyColumn:  "Наименование получателя",
			DescriptionPrefixes: kaspiPrefixes,
		},
		"halyk_business": {
			Label:              "Halyk (Business)",
			DateColumn:         "Дата",
			DebitColumn:        "Дебет",
			CreditColumn:       "Кредит",
			PurposeCodeColumn:  "КНП",
			PurposeColumn:      "Назначение платежа",
			CounterpartyColumn: "Корреспондент",
		},
		"halyk_individual": {
			Label:         "Halyk (Individual)",
			DateColumn:    "Дата проведения операции",
			AmountColumn:  "Сумма",
			PurposeColumn: "Назначение платежа",
		},
		"freedom_bank": {
			Label:         "Freedom Bank",
			DateColumn:    "Дата",
			DebitColumn:   "Дебет",
			CreditColumn:  "Кредит",
			PurposeColumn: "Назначение платежа",
		},
		"forte_bank": {
			Label:              "ForteBank",
			DateColumn:         "Күні/Дата",
			DebitColumn:        "Дебет",
			CreditColumn:       "Кредит",
			PurposeColumn:      "Назначение платежа",
			CounterpartyColumn: "Контрагент",
		},
		"eurasian_bank": {
			Label:         "Eurasian Bank",
			DateColumn:    "Дата",
			DebitColumn:   "Дебет",
			CreditColumn:  "Кредит",
			PurposeColumn: "Назначение платежа",
		},
		"bcc_bank": {
			Label:              "BCC (CenterCredit)",
			DateColumn:         "Дата проводки",
			DebitColumn:        "Дебет",
			CreditColumn:       "Кредит",
			PurposeCodeColumn:  "КНП",
			PurposeColumn:      "Назначение платежа",
			CounterpartyColumn: "Корреспондент",
		},
		"alatau_city_bank": {
			Label:         "Alatau City Bank",
			DateColumn:    "Дата",
			DebitColumn:   "Дебет",
			CreditColumn:  "Кредит",
			PurposeColumn: "Назначение платежа",
		},
	})
}

// Load reads schema overrides from r and merges them over the defaults.
// Banks present in the file replace the default entry wholesale; banks absent
// from the file keep their defaults.
func Load(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("schema.Load: read: %w", err)
	}

	var file struct {
		Banks map[string]BankSchema `yaml:"banks"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("schema.Load: parse yaml: %w", err)
	}

	base := Default()
	for key, sch := range file.Banks {
		base.banks[key] = sch
	}
	return base, nil
}

// LoadFile is Load over a file path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schema.LoadFile: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Lookup returns the schema for the given bank key.
func (r *Registry) Lookup(bank string) (BankSchema, bool) {
	sch, ok := r.banks[bank]
	return sch, ok
}

// Label returns the display name for a bank key, or the key itself when the
// bank is unknown or has no label configured.
func (r *Registry) Label(bank string) string {
	if sch, ok := r.banks[bank]; ok && sch.Label != "" {
		return sch.Label
	}
	return bank
}

// Banks returns the configured bank keys in no particular order.
func (r *Registry) Banks() []string {
	keys := make([]string, 0, len(r.banks))
	for k := range r.banks {
		keys = append(keys, k)
	}
	return keys
}
