// Package loans is the loan ledger and eligibility engine. It moves loans
// through reserved -> borrowed -> returned, keeps the available copy count of
// each book in step with the ledger, assesses overdue fines and appends the
// matching notifications.
//
// Every operation runs in one store transaction. Within it the user row is
// locked before the book row, so concurrent borrows of the last copy are
// serialized and exactly one of them succeeds.
package loans
