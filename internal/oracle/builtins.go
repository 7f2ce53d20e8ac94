package oracle

import "strings"

// builtinCallables is the subset of Python's builtins namespace this
// oracle recognizes as callables. It is not exhaustive — recognizing a
// wider builtin surface is a matter of listing more names, not a change
// in approach.
var builtinCallables = map[string]struct{}{
	"print": {}, "len": {}, "range": {}, "isinstance": {}, "issubclass": {},
	"super": {}, "type": {}, "dict": {}, "list": {}, "tuple": {}, "set": {},
	"frozenset": {}, "str": {}, "int": {}, "float": {}, "bool": {}, "bytes": {},
	"open": {}, "iter": {}, "next": {}, "enumerate": {}, "zip": {}, "map": {},
	"filter": {}, "sorted": {}, "reversed": {}, "sum": {}, "min": {}, "max": {},
	"abs": {}, "round": {}, "repr": {}, "format": {}, "hash": {}, "id": {},
	"vars": {}, "dir": {}, "getattr": {}, "setattr": {}, "hasattr": {},
	"delattr": {}, "property": {}, "staticmethod": {}, "classmethod": {},
	"all": {}, "any": {}, "callable": {}, "input": {}, "compile": {}, "eval": {},
	"exec": {}, "globals": {}, "locals": {}, "object": {}, "slice": {},
	"divmod": {}, "pow": {}, "chr": {}, "ord": {}, "hex": {}, "oct": {}, "bin": {},
}

// isIntrinsicName reports whether name is a language-provided intrinsic
// (spec glossary: "a name provided by the language itself ... whose
// declaration is synthetic").
func isIntrinsicName(name string) bool {
	if !strings.HasPrefix(name, "__") || !strings.HasSuffix(name, "__") {
		return false
	}
	switch name {
	case "__name__", "__file__", "__doc__", "__module__", "__class__",
		"__qualname__", "__package__", "__spec__", "__loader__", "__builtins__",
		"__dict__", "__all__":
		return true
	}
	return false
}
