package manager

import "strings"

// ExtractReply removes an echoed prompt from raw model output. When prompt
// occurs in raw, everything up to and including its first occurrence is
// dropped. Otherwise the whole output is the reply, even if the model
// paraphrased or re-spaced the prompt. Surrounding whitespace is trimmed in
// both cases.
func ExtractReply(raw, prompt string) string {
	if prompt == "" {
		return strings.TrimSpace(raw)
	}
	if i := strings.Index(raw, prompt); i >= 0 {
		raw = raw[i+len(prompt):]
	}
	return strings.TrimSpace(raw)
}
