// Package validator provides a small validation abstraction for request,
// domain and configuration structs.
//
// Business code depends on the Validator interface. The go-playground v10
// implementation adds two rules: base32secret for account secrets and
// otpcode for user-submitted codes.
package validator
