package service

import "time"

// timeNow is swapped in tests that assert on publish timestamps.
var timeNow = time.Now
