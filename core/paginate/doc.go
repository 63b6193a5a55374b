// Package paginate turns page-at-a-time list endpoints into lazy sequences.
//
// Pages works for both cursor pagination (C is a string cursor) and offset
// pagination (C is a page number). The sequence stops when a page reports
// no more data, or when a page after the first comes back empty even though
// the server claimed there was more. A fetch error is yielded once and ends
// the sequence; it is never swallowed.
//
// Ranging over the same sequence twice walks the endpoint again from the
// first cursor.
//
//	for p, err := range paginate.Pages(ctx, "", fetch) {
//	    if err != nil {
//	        return err
//	    }
//	    index(p)
//	}
package paginate
