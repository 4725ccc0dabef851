package parse

import (
	"fmt"
	"strings"
)

// systemInstruction is the fixed instruction carried on every completion
// call. The model must return strict JSON matching the statement schema.
const systemInstruction = `You are a credit-card statement parser for Indian bank statements.

Task:
- Parse the card details, statement summary and ALL transactions from the statement text.
- Output STRICT JSON only (no comments, no trailing commas, no extra text).
- Do NOT wrap the response in code fences or Markdown.

Output a single JSON object with this shape:
{
  "card_details": {
    "bank": string,
    "masked_number": string,
    "card_type": string or null,
    "credit_limit": number or null,
    "available_limit": number or null
  },
  "summary": {
    "statement_date": "YYYY-MM-DD",
    "due_date": "YYYY-MM-DD" or null,
    "total_due": number or null,
    "min_due": number or null,
    "opening_balance": number or null,
    "payment_amount": number or null,
    "purchase_amount": number or null
  },
  "transactions": [
    {
      "date": "YYYY-MM-DD",
      "description": string,
      "amount": number,
      "direction": "debit" or "credit",
      "category": string or null,
      "sub_category": string or null
    }
  ]
}

Rules:
- "amount" is always a non-negative number; the flow is carried by "direction".
- "Cr" suffixes and payment credits are direction "credit"; purchases and charges are "debit".
- Include EMI debits, interest, fees, reversals and payments as transactions; do not filter anything out.
- "category" is the category printed on the statement if any, else your best one-word label, else null.`

// buildUserPrompt assembles the per-call context: bank, the raw statement
// text, and validation feedback from earlier attempts so the model can
// correct the exact field it got wrong.
func buildUserPrompt(bankCode, rawText string, previousErrors []string) string {
	var b strings.Builder

	b.WriteString("Issuing bank code: ")
	b.WriteString(bankCode)
	b.WriteString("\n\nStatement text:\n---\n")
	b.WriteString(rawText)
	b.WriteString("\n---\n")

	if len(previousErrors) > 0 {
		b.WriteString("\nYour previous responses were rejected. Fix these validation errors:\n")
		for i, e := range previousErrors {
			fmt.Fprintf(&b, "- attempt %d: %s\n", i+1, e)
		}
	}

	return b.String()
}
