/*
Package ratelimit groups the limiters pipeflow uses to pace work:

  - bucket: byte token bucket behind the throttle stage
  - concurrency: permit limiter capping concurrent streams in the server

Both are safe for concurrent use and take a context.Context on every
blocking call.
*/
package ratelimit
