package steps

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/denizgursoy/behave/pkg/keywords"
)

const (
	behavePackage = "github.com/denizgursoy/behave/pkg/behave"
	stepsPackage  = "github.com/denizgursoy/behave/pkg/steps"
)

// PendingMethod renders a stub step function for the text of a pending
// step, starting word excluded. The stub carries the comment directive
// that registers it and returns ErrPendingStep until implemented.
func PendingMethod(stepType keywords.StepType, text string) string {
	directive := strings.ToLower(stepType.String())
	template := strings.ReplaceAll(strings.Join(strings.Fields(text), " "), "`", "'")

	stub := jen.Comment(fmt.Sprintf("@%s `%s`", directive, template)).Line().
		Func().Id(MethodName(stepType, text)).
		Params(jen.Id("ctx").Op("*").Qual(behavePackage, "Context")).
		Error().
		Block(jen.Return(jen.Qual(stepsPackage, "ErrPendingStep")))
	return fmt.Sprintf("%#v", stub)
}

// MethodName derives an exported Go identifier from a step, e.g.
// "GivenIHave5Apples" for a Given step "I have 5 apples".
func MethodName(stepType keywords.StepType, text string) string {
	var b strings.Builder
	b.WriteString(capitalize(strings.ToLower(stepType.String())))
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		b.WriteString(capitalize(word))
	}
	return b.String()
}

func capitalize(word string) string {
	r := []rune(word)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
