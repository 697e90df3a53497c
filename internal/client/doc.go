// Package client exchanges request/response frames with an ecoMAX heating
// controller over a TCP serial bridge.
//
// Each operation is one self-contained exchange: open a fresh connection,
// send the request frame, scan inbound bytes for the matching response or
// broadcast, decode its payload, close the connection. Connections are
// never reused across exchanges; the bridge tolerates this pattern well and
// it sidesteps every class of stale-socket bug.
//
// # Usage Example
//
//	c := client.New("192.168.1.50", 8899,
//	    client.WithTimeout(10*time.Second),
//	)
//
//	values, err := c.FetchThermostatState(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	temp, _ := values["current_temp"].Float64()
//
// # Exchange Lifecycle
//
// An exchange moves through a fixed sequence:
//  1. Connect to the bridge (dial with the caller's context)
//  2. Send the request frame
//  3. Await the matching frame, skipping unrelated broadcasts and
//     malformed byte runs
//  4. Decode the payload against the command's field layout
//  5. Disconnect
//
// A single deadline covers steps 2-4; when it expires the exchange fails
// with a timeout error and the connection is closed. Canceling the context
// tears the connection down immediately.
//
// # Concurrency
//
// The controller is half-duplex, so exchanges never overlap. By default a
// second exchange started while one is in flight fails immediately with a
// busy error (BusyReject); WithBusyPolicy(BusyWait) queues it instead.
//
// # Error Handling
//
// All failures are *ExchangeError values categorized by ErrorType and
// carrying a Retryable flag. The IsTimeout, IsBusy, IsConnectionError,
// IsCanceled and IsRetryable predicates work through wrapped chains via
// errors.As.
package client
