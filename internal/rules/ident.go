package rules

import "strings"

// ValidCPF reports whether the string is a valid CPF (11-digit national ID),
// ignoring formatting characters. Repeated-digit sequences are invalid even
// though their check digits work out.
func ValidCPF(cpf string) bool {
	digits := onlyDigits(cpf)
	if len(digits) != 11 {
		return false
	}
	if allSame(digits) {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(digits[i]-'0') * (10 - i)
	}
	d1 := (sum * 10 % 11) % 10
	if d1 != int(digits[9]-'0') {
		return false
	}

	sum = 0
	for i := 0; i < 10; i++ {
		sum += int(digits[i]-'0') * (11 - i)
	}
	d2 := (sum * 10 % 11) % 10
	return d2 == int(digits[10]-'0')
}

// ValidCNPJ reports whether the string is a valid CNPJ (14-digit company
// registry number), ignoring formatting characters.
func ValidCNPJ(cnpj string) bool {
	digits := onlyDigits(cnpj)
	if len(digits) != 14 {
		return false
	}
	if allSame(digits) {
		return false
	}

	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum := 0
	for i, w := range weights1 {
		sum += int(digits[i]-'0') * w
	}
	d1 := 11 - sum%11
	if d1 >= 10 {
		d1 = 0
	}
	if d1 != int(digits[12]-'0') {
		return false
	}

	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum = 0
	for i, w := range weights2 {
		sum += int(digits[i]-'0') * w
	}
	d2 := 11 - sum%11
	if d2 >= 10 {
		d2 = 0
	}
	return d2 == int(digits[13]-'0')
}

// SequentialDigits reports whether the digits form a strictly ascending or
// descending run (e.g. 12345678901), a pattern common in fabricated IDs.
func SequentialDigits(s string) bool {
	digits := onlyDigits(s)
	if len(digits) < 3 {
		return false
	}
	asc, desc := true, true
	for i := 1; i < len(digits); i++ {
		diff := int(digits[i]) - int(digits[i-1])
		if diff != 1 && !(digits[i-1] == '9' && digits[i] == '0') {
			asc = false
		}
		if diff != -1 && !(digits[i-1] == '0' && digits[i] == '9') {
			desc = false
		}
	}
	return asc || desc
}

// FormatCPF renders a CPF as XXX.XXX.XXX-XX, or returns the input digits
// unchanged when the length is wrong.
func FormatCPF(cpf string) string {
	d := onlyDigits(cpf)
	if len(d) != 11 {
		return d
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}

// FormatCNPJ renders a CNPJ as XX.XXX.XXX/XXXX-XX, or returns the input
// digits unchanged when the length is wrong.
func FormatCNPJ(cnpj string) string {
	d := onlyDigits(cnpj)
	if len(d) != 14 {
		return d
	}
	return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
