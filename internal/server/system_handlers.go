package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status        string  `json:"status" msgpack:"status"`
	CPUPercent    float64 `json:"cpu_percent" msgpack:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent" msgpack:"memory_percent"`
	UptimeSeconds float64 `json:"uptime_seconds" msgpack:"uptime_seconds"`
	Goroutines    int     `json:"goroutines" msgpack:"goroutines"`
	Portfolios    int     `json:"portfolios" msgpack:"portfolios"`
	MemorySize    int     `json:"adaptive_memory_size" msgpack:"adaptive_memory_size"`
}

// handleSystemStatus handles GET /api/system/status
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := s.getSystemStats()
	st := s.coordinator.State()

	s.write(w, r, http.StatusOK, SystemStatusResponse{
		Status:        "healthy",
		CPUPercent:    cpuPct,
		MemoryPercent: memPct,
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		Portfolios:    len(st.PortfolioIDs()),
		MemorySize:    st.Memory.Len(),
	})
}

// getSystemStats returns CPU and RAM usage percentages, sampled over 100ms.
func (s *Server) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
