// Package lint provides static analysis collaborators for bughound. Tool
// wraps external C++ linters (cppcheck, cpplint, clang-tidy) behind temp
// files; a missing binary or a timeout counts as nothing to report rather
// than an error. Heuristics is a pure-Go checker for common RDI API
// mistakes that needs no external tooling.
package lint
