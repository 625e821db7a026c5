package global

import (
	"sync"

	"TCAGo/prometheus"
)

var (
	WtGrp      sync.WaitGroup
	Prometrics *prometheus.Metrics
)
