package service

import (
	"net/mail"
	"regexp"
	"slices"
	"strings"

	"github.com/pesio-ai/be-fraud-cases/internal/errors"
)

// Closed classification vocabularies.
var (
	CaseTypes = []string{
		"Lending", "Non Lending", "Document Fraud", "Identity Fraud",
		"Financial Fraud", "Compliance Violation", "Operational Risk",
	}

	Products = []string{
		"BL", "BTC PL", "DL", "Drop Line LOC", "Finagg", "INSTI - MORTGAGES",
		"LAP", "Line of Credit", "MLAP", "NA", "PL", "SEG", "SME", "STSL",
		"STSLP BT + Top - up", "STUL", "Term Loan", "Term Loan Infra",
		"Udyog Plus", "Unsecured BuyOut",
	}

	Regions = []string{"East", "North", "South", "West"}

	Referrers = []string{
		"Audit Team", "Business Unit", "Collection Unit", "Compliance Team",
		"Credit Unit", "Customer Service", "GRT", "HR", "Legal Unit",
		"MD / CEO Escalation", "Operation Risk Management", "Operation Unit",
		"Other Function", "Policy Team", "Risk Containment Unit", "Sales Unit",
		"Technical Team",
	}
)

var (
	panPattern    = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// checkEnum trims value and requires it to be one of allowed.
func checkEnum(field, value string, allowed []string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", errors.MissingField(field)
	}
	if !slices.Contains(allowed, v) {
		return "", errors.InvalidInput(field, "unknown "+field+": "+v)
	}
	return v, nil
}

// normalizePAN uppercases and validates a PAN.
func normalizePAN(pan string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(pan))
	if !panPattern.MatchString(p) {
		return "", errors.InvalidInput("customer.pan", "PAN must be 10 alphanumeric characters")
	}
	return p, nil
}

func normalizeMobile(mobile string) (string, error) {
	m := strings.TrimSpace(mobile)
	if !mobilePattern.MatchString(m) {
		return "", errors.InvalidInput("customer.mobile", "mobile number must be 10 digits")
	}
	return m, nil
}

func normalizeEmail(email string) (string, error) {
	e := strings.TrimSpace(email)
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || !strings.Contains(e[strings.LastIndex(e, "@")+1:], ".") {
		return "", errors.InvalidInput("customer.email", "email address is not valid")
	}
	return e, nil
}

// optional trims s and returns nil when it is blank.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
