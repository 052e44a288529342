// Package tasks fetches missing sounds with an external downloader, one at a time.
//
// # Worker
//
// [Fetcher.Start] runs the download tool (yt-dlp by default) in its own goroutine and
// returns a channel of [Event] values:
//   - zero or more progress events parsed from "[download]  NN.N%" lines
//   - exactly one terminal success or error event, after which the channel is closed
//
// Standard error is drained concurrently so the tool cannot stall on a full pipe; its
// last line becomes the failure reason when the tool exits non-zero.
//
// # Queue
//
// [Queue] keeps every requested [Task] in request order and admits the earliest
// pending one only when nothing is downloading. [Queue.Poll] never blocks: it admits,
// then drains whatever events are ready. A successful result is handed to a [Sink]
// (the catalog) and a closed channel without a terminal event fails the task.
//
// Every progress line yields one event. Sends wait for the reader and give up only
// when the fetch context is cancelled.
package tasks
