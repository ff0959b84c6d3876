// Package handler contains the HTTP request handlers of the vocapp API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path params, JSON body, auth claims)
// 2. Call a service
// 3. Write the HTTP response through writeJSON or writeError
//
// Handlers hold no business rules. Ownership checks, validation and the
// two-phase deck writes all live in the service package; handlers only
// translate between HTTP and those calls.
package handler
