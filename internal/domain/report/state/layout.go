package state

import "strings"

// CustomerInfo identifies the property a report was prepared for.
type CustomerInfo struct {
	CustomerName string `json:"customer_name"`
	PropertyName string `json:"property_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Date         string `json:"date"`
}

// CityLine renders "City, ST 12345" omitting empty parts.
func (c CustomerInfo) CityLine() string {
	line := c.City
	rest := strings.TrimSpace(c.State + " " + c.Zip)
	switch {
	case line == "":
		return rest
	case rest == "":
		return line
	default:
		return line + ", " + rest
	}
}

// SectionTitles are the headings of report sections.
type SectionTitles struct {
	Notes        string `json:"notes"`
	DetailsTitle string `json:"details_title"`
	Pictures     string `json:"pictures"`
}

// Layout is the editable text surrounding the installation data.
type Layout struct {
	Customer       CustomerInfo  `json:"customer"`
	ReportTitle    string        `json:"report_title"`
	LetterText     []string      `json:"letter_text"`
	SignatureName  string        `json:"signature_name"`
	SignatureTitle string        `json:"signature_title"`
	RePrefix       string        `json:"re_prefix"`
	DearPrefix     string        `json:"dear_prefix"`
	SectionTitles  SectionTitles `json:"section_titles"`
}

// ToiletCountPlaceholder is replaced with the property toilet total.
const ToiletCountPlaceholder = "{toiletCount}"

// DefaultLayout returns the standard cover letter.
func DefaultLayout() Layout {
	return Layout{
		ReportTitle: "Water Conservation Installation Report",
		LetterText: []string{
			"Please find the attached Installation Report. As you can see, we clearly indicated the installed items in each area. You will see the repairs that we made noted as well.",
			"We successfully installed " + ToiletCountPlaceholder + " toilets at the property.",
			"Please send us copies of the actual water bills following our installation, so we can analyze them to pinpoint the anticipated water reduction and savings. We urge you to fix any constant water issues ASAP, as not to compromise potential savings as a result of our installation.",
			"Thank you for choosing Green Light Water Conservation. We look forward to working with you in the near future.",
		},
		SignatureName:  "Zev Stern, CWEP",
		SignatureTitle: "Chief Operating Officer",
		RePrefix:       "RE:",
		DearPrefix:     "Dear",
		SectionTitles: SectionTitles{
			Notes:        "Notes",
			DetailsTitle: "Detailed Unit Information",
			Pictures:     "Installation Pictures",
		},
	}
}

// WithDefaults fills empty fields from DefaultLayout.
func (l Layout) WithDefaults() Layout {
	d := DefaultLayout()
	if l.ReportTitle == "" {
		l.ReportTitle = d.ReportTitle
	}
	if len(l.LetterText) == 0 {
		l.LetterText = d.LetterText
	}
	if l.SignatureName == "" {
		l.SignatureName = d.SignatureName
	}
	if l.SignatureTitle == "" {
		l.SignatureTitle = d.SignatureTitle
	}
	if l.RePrefix == "" {
		l.RePrefix = d.RePrefix
	}
	if l.DearPrefix == "" {
		l.DearPrefix = d.DearPrefix
	}
	if l.SectionTitles.Notes == "" {
		l.SectionTitles.Notes = d.SectionTitles.Notes
	}
	if l.SectionTitles.DetailsTitle == "" {
		l.SectionTitles.DetailsTitle = d.SectionTitles.DetailsTitle
	}
	if l.SectionTitles.Pictures == "" {
		l.SectionTitles.Pictures = d.SectionTitles.Pictures
	}
	return l
}

// Letter returns the letter paragraphs with the toilet count filled in.
func (l Layout) Letter(toiletCount string) []string {
	out := make([]string, len(l.LetterText))
	for i, p := range l.LetterText {
		out[i] = strings.ReplaceAll(p, ToiletCountPlaceholder, toiletCount)
	}
	return out
}
