// Package palpa is a client for the Palpa deposit lookup API.
//
// The API is the one used by Palpa's mobile app: a plain unauthenticated
// GET of the base URL followed by the EAN code, answering with a small JSON
// document. It is undocumented and may change without notice.
//
// Example responses:
//
//	no deposit:  {"status":1,"productName":null,"recyclingSystem":null,"deposit":null}
//	deposit:     {"status":2,"productName":"Malmgård East Coast Lager 44cl","recyclingSystem":"Tölkki","deposit":"0,15 €"}
//
// # Usage
//
//	client := palpa.NewClient(palpa.DefaultBaseURL)
//	resp, err := client.Lookup(ctx, "6410405176692")
//	if err != nil {
//	    return err
//	}
//	if resp.DepositFound() {
//	    fmt.Println("Pantti get!")
//	}
//
// Errors are *LookupError values classified as network, HTTP or parse
// failures. Requests are never retried.
package palpa
