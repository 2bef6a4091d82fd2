// Package catalog holds the built-in sample documents and the mapping from
// annotation clicks to canned questions. Uploaded documents carry no spans;
// only catalog entries are annotated.
package catalog

import "github.com/civitas-ai/civitas/models"

const rentalAgreementText = `RENTAL AGREEMENT

This Rental Agreement ("Agreement") is entered into on March 15, 2024, between John Smith ("Landlord") and Jane Doe ("Tenant") for the property located at 123 Main Street, Anytown, ST 12345.

TERMS AND CONDITIONS

1. LEASE TERM: The lease term shall commence on April 1, 2024, and shall continue for a period of twelve (12) months, ending on March 31, 2025.

2. RENT: Tenant agrees to pay monthly rent of $1,500.00, due on the first day of each month. Late payment fee of $50.00 will be charged for payments received after the 5th day of the month.

3. SECURITY DEPOSIT: Tenant shall pay a security deposit of $1,500.00 prior to occupancy. This deposit will be returned within 30 days of lease termination, less any deductions for damages.

4. TERMINATION: Either party may terminate this agreement with 30 days written notice. Early termination by Tenant will result in forfeiture of security deposit and payment of early termination fee of $500.00.

5. MAINTENANCE: Landlord is responsible for major repairs and maintenance. Tenant is responsible for routine maintenance and minor repairs under $100.00.

6. PETS: No pets are allowed without prior written consent from Landlord. Unauthorized pets will result in immediate lease termination and additional cleaning fee of $300.00.`

var rentalAgreementSpans = []models.Span{
	{ID: "date1", Kind: models.SpanKindDate, Text: "March 15, 2024", Start: 73, End: 87, Tooltip: "Contract execution date"},
	{ID: "party1", Kind: models.SpanKindParty, Text: "John Smith", Start: 97, End: 107, Tooltip: "Landlord party"},
	{ID: "party2", Kind: models.SpanKindParty, Text: "Jane Doe", Start: 125, End: 133, Tooltip: "Tenant party"},
	{ID: "date2", Kind: models.SpanKindDate, Text: "April 1, 2024", Start: 280, End: 293, Tooltip: "Lease commencement date"},
	{ID: "date3", Kind: models.SpanKindDate, Text: "March 31, 2025", Start: 360, End: 374, Tooltip: "Lease termination date"},
	{ID: "penalty1", Kind: models.SpanKindPenalty, Text: "Late payment fee of $50.00", Start: 470, End: 496, Tooltip: "Late payment penalty"},
	{ID: "penalty2", Kind: models.SpanKindPenalty, Text: "early termination fee of $500.00", Start: 935, End: 967, Tooltip: "Early termination penalty"},
	{ID: "penalty3", Kind: models.SpanKindPenalty, Text: "additional cleaning fee of $300.00", Start: 1264, End: 1298, Tooltip: "Pet violation penalty"},
}

// spanQuestions maps an annotation id to the question the UI asks when that
// highlight is clicked.
var spanQuestions = map[string]string{
	"date1":    "What is the significance of the March 15, 2024 date?",
	"date2":    "When does the lease start?",
	"date3":    "When does the lease end?",
	"party1":   "Who is the landlord in this agreement?",
	"party2":   "Who is the tenant in this agreement?",
	"penalty1": "What is the late payment fee?",
	"penalty2": "What happens if I terminate early?",
	"penalty3": "What are the pet-related penalties?",
}

// SuggestedQuestions are generic prompts shown before the user types anything.
var SuggestedQuestions = []string{
	"What are my obligations in this contract?",
	"Are there hidden penalties?",
	"What is the termination rule here?",
	"Is this legally enforceable?",
	"What happens if I break this agreement?",
}

var samples = []models.Document{
	{
		ID:      "doc1",
		Title:   "Rental Agreement",
		Kind:    "sample",
		RawText: rentalAgreementText,
		Spans:   rentalAgreementSpans,
	},
	{
		ID:      "doc2",
		Title:   "Employment Contract",
		Kind:    "sample",
		RawText: "This employment contract outlines the terms of employment between the employer and the employee, including compensation, working hours, confidentiality obligations and grounds for termination.",
	},
	{
		ID:      "doc3",
		Title:   "Terms of Service",
		Kind:    "sample",
		RawText: "These terms of service govern the use of our platform, including acceptable use, limitation of liability, dispute resolution and the conditions under which accounts may be suspended.",
	},
}

// Samples returns the built-in document catalog.
func Samples() []models.Document {
	out := make([]models.Document, len(samples))
	copy(out, samples)
	return out
}

// Get returns a sample document by id.
func Get(id string) (models.Document, bool) {
	for _, d := range samples {
		if d.ID == id {
			return d, true
		}
	}
	return models.Document{}, false
}

// SpanQuestion resolves an annotation id to its canned question.
func SpanQuestion(spanID string) (string, bool) {
	q, ok := spanQuestions[spanID]
	return q, ok
}
