package forms

// Decorator enriches a definition with display metadata after the canonical
// structure has been declared. Decorators run on a private clone during
// registration and must not change names, kinds or rules.
type Decorator interface {
	Decorate(*Definition) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*Definition) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(def *Definition) error {
	return fn(def)
}
