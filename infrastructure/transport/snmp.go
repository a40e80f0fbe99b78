package transport

import (
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/sirupsen/logrus"
)

// SysNameOID is SNMPv2-MIB::sysName.0, the configured hostname of the device.
const SysNameOID = "1.3.6.1.2.1.1.5.0"

// SNMPResolver reads the device hostname over SNMPv2c.
type SNMPResolver struct {
	Community string
	Port      uint16
	Timeout   time.Duration
	Retries   int
	Log       logrus.FieldLogger
}

// NewSNMPResolver returns a resolver on the standard port with a 5s timeout.
func NewSNMPResolver(community string, log logrus.FieldLogger) *SNMPResolver {
	return &SNMPResolver{Community: community, Port: 161, Timeout: 5 * time.Second, Retries: 1, Log: log}
}

// ResolveHostname returns sysName.0 of target.
func (r *SNMPResolver) ResolveHostname(target string) (string, error) {
	client := &gosnmp.GoSNMP{
		Target:    target,
		Port:      r.Port,
		Community: r.Community,
		Version:   gosnmp.Version2c,
		Timeout:   r.Timeout,
		Retries:   r.Retries,
		Transport: "udp",
	}
	if err := client.Connect(); err != nil {
		return "", fmt.Errorf("SNMP connect to %s: %w", target, err)
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{SysNameOID})
	if err != nil {
		return "", fmt.Errorf("SNMP get sysName from %s: %w", target, err)
	}
	if len(result.Variables) == 0 {
		return "", fmt.Errorf("SNMP get sysName from %s: empty response", target)
	}
	name, err := sysNameValue(result.Variables[0])
	if err != nil {
		return "", fmt.Errorf("SNMP sysName from %s: %w", target, err)
	}
	r.Log.Debugf("sysName of %s is %q", target, name)
	return name, nil
}

func sysNameValue(pdu gosnmp.SnmpPDU) (string, error) {
	switch pdu.Type {
	case gosnmp.OctetString:
		b, ok := pdu.Value.([]byte)
		if !ok {
			return "", fmt.Errorf("unexpected value type %T", pdu.Value)
		}
		if len(b) == 0 {
			return "", fmt.Errorf("sysName is empty")
		}
		return string(b), nil
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.Null:
		return "", fmt.Errorf("sysName not available (%v)", pdu.Type)
	default:
		return "", fmt.Errorf("unexpected PDU type %v", pdu.Type)
	}
}
