package assert

import "fmt"

// NotNil panics if value is nil, msg is included in the panic message if given.
func NotNil(value any, msg ...any) {
	if value == nil {
		panic(fmt.Sprintf("expected value to be not nil %v", msg))
	}
}

func NotEmptyStr(str string, msg ...any) {
	if str == "" {
		panic(fmt.Sprintf("expected string to be non-empty %v", msg))
	}
}
