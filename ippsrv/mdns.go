package ippsrv

import (
	"fmt"
	"strings"

	"github.com/grandcat/zeroconf"
)

type mdnsSvc zeroconf.Server

// txtRecords returns the DNS-SD TXT record of the printer.
// https://developer.apple.com/bonjour/printing-specification/
func txtRecords(p *Printer, host string, port int) []string {
	return []string{
		"txtvers=1",
		"qtotal=1",
		"rp=" + strings.TrimPrefix(printersPath, "/") + p.Name(),
		"ty=" + p.MakeAndModel(),
		"product=(" + p.MakeAndModel() + ")",
		"note=" + p.Info(),
		fmt.Sprintf("adminurl=http://%s:%d/", host, port),
		"priority=0",
		"kind=receipt",
		"pdl=" + strings.Join(p.Formats(), ","),
		"Color=F",
		"UUID=" + strings.TrimPrefix(p.UUID(), "urn:uuid:"),
	}
}

func newMDNS(p *Printer, host string, port int) (*mdnsSvc, error) {
	const (
		serviceType = "_ipp._tcp"
		domain      = "local."
	)
	srv, err := zeroconf.Register(
		p.MakeAndModel(),
		serviceType,
		domain,
		port,
		txtRecords(p, host, port),
		nil,
	)
	if err != nil {
		return nil, err
	}
	return (*mdnsSvc)(srv), nil
}

func (s *mdnsSvc) Shutdown() {
	(*zeroconf.Server)(s).Shutdown()
}
