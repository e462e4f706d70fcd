// Package subscriber loads the list of people who signed up for the daily menu.
//
// Every source yields [Subscriber] values parsed from a table whose first row is
// a header. The email and opt-in columns are located by name, so extra form
// columns (timestamps, names) are ignored. Rows with a blank email are skipped.
// An opt-in cell counts as subscribed when it reads yes, y, true, 1 or x in any
// case.
//
// Sources:
//
//   - [SheetsSource]: a Google Sheets range read through the Sheets v4 values API,
//     authenticated with a service-account key or an API key for public sheets
//   - [CSVSource]: a CSV export from a file or an http(s) URL
//   - [StaticSource]: a fixed list, all subscribed
//
// [New] picks one from [Config]:
//
//	src, err := subscriber.New(ctx, cfg.Subscribers)
//	subs, err := src.Subscribers(ctx)
package subscriber
