// Package client is the Go SDK for the hospital ledger HTTP API.
//
// # Recording a visit
//
//	c, err := client.New("http://localhost:8080")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := c.AddVisit(ctx, client.VisitRequest{
//	    PatientName: "Alice",
//	    Treatment:   "X-Ray",
//	    Cost:        150,
//	    DateOfVisit: "2024-01-01",
//	})
//	fmt.Println(res.Status, res.Record.Digest) // created 3f1c...
//
// # Searching
//
// Names are matched case-insensitively. A patient with no recorded visits
// yields ErrPatientNotFound:
//
//	visits, err := c.FindVisits(ctx, "ALICE")
//	if errors.Is(err, client.ErrPatientNotFound) {
//	    // nothing recorded under that name
//	}
package client
