package state

import "errors"

// ErrStateCorruption signals that the completed-phase set no longer matches
// the fixed phase sequence. It is the only fault that aborts an
// investigation outright.
var ErrStateCorruption = errors.New("investigation state corrupted")

// Update is the partial result an executor hands back to the driver loop.
// Collections are appended, never replaced; the loop merges exactly once
// per phase.
type Update struct {
	Subdomains   []string
	LiveHosts    []LiveHost
	IntelHosts   []IntelHost
	IntelDetails []IntelDetail
	Technologies []Technology
	Report       string
	Errors       []PhaseError
}

// Merge folds an executor's partial update into the investigation. The
// report is written at most once, by the reporting phase.
func (inv *Investigation) Merge(u Update) {
	inv.AddSubdomains(u.Subdomains)
	inv.LiveHosts = append(inv.LiveHosts, u.LiveHosts...)
	inv.IntelHosts = append(inv.IntelHosts, u.IntelHosts...)
	inv.IntelDetails = append(inv.IntelDetails, u.IntelDetails...)
	inv.Technologies = append(inv.Technologies, u.Technologies...)
	inv.Errors = append(inv.Errors, u.Errors...)
	if u.Report != "" && inv.Report == "" {
		inv.Report = u.Report
	}
}
