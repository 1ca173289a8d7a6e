// Package inverter reads live operating data from a SunSpec-compatible
// PV inverter over Modbus TCP, so measured output can be compared with
// simulated production profiles.
package inverter

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/goburrow/modbus"
)

// SunSpec inverter model register map (model 103, three phase).
// Register addresses are zero based offsets from the Modbus map start.
const (
	regACPower        = 40083 // int16, watts
	regACPowerSF      = 40084 // int16, sunssf
	regLifetimeEnergy = 40093 // uint32, watt hours
	regLifetimeSF     = 40095 // int16, sunssf
	regCabinetTemp    = 40103 // int16, degrees C
	regTempSF         = 40106 // int16, sunssf
)

// DefaultSlaveID is the unit identifier most SunSpec inverters answer on.
const DefaultSlaveID = 1

// Client represents a Modbus TCP connection to one inverter.
type Client struct {
	client  modbus.Client
	handler *modbus.TCPClientHandler
}

// NewTCPClient connects to an inverter's Modbus TCP endpoint. The address
// must include the port, e.g. "192.168.1.40:502".
func NewTCPClient(address string, slaveID byte) (*Client, error) {
	handler := modbus.NewTCPClientHandler(address)
	handler.SlaveId = slaveID
	handler.Timeout = 2 * time.Second

	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to inverter at %s: %w", address, err)
	}

	return &Client{
		client:  modbus.NewClient(handler),
		handler: handler,
	}, nil
}

// Close closes the Modbus connection.
func (c *Client) Close() error {
	if c.handler != nil {
		return c.handler.Close()
	}
	return nil
}

// Status holds one instantaneous reading from the inverter.
type Status struct {
	ACPowerWatts     float64
	LifetimeEnergyWh float64
	CabinetTempC     float64
	ReadAt           time.Time
}

// ReadStatus reads the instantaneous AC output, lifetime energy counter
// and cabinet temperature.
func (c *Client) ReadStatus() (*Status, error) {
	powerData, err := c.client.ReadHoldingRegisters(regACPower, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to read AC power registers: %w", err)
	}
	if len(powerData) < 4 {
		return nil, fmt.Errorf("short AC power response: %d bytes", len(powerData))
	}

	energyData, err := c.client.ReadHoldingRegisters(regLifetimeEnergy, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to read energy registers: %w", err)
	}
	if len(energyData) < 6 {
		return nil, fmt.Errorf("short energy response: %d bytes", len(energyData))
	}

	tempData, err := c.client.ReadHoldingRegisters(regCabinetTemp, 4)
	if err != nil {
		return nil, fmt.Errorf("failed to read temperature registers: %w", err)
	}
	if len(tempData) < 8 {
		return nil, fmt.Errorf("short temperature response: %d bytes", len(tempData))
	}

	return &Status{
		ACPowerWatts:     scaledS16(bytesToS16(powerData[0:2]), bytesToS16(powerData[2:4])),
		LifetimeEnergyWh: scaledU32(bytesToU32(energyData[0:4]), bytesToS16(energyData[4:6])),
		CabinetTempC:     scaledS16(bytesToS16(tempData[0:2]), bytesToS16(tempData[6:8])),
		ReadAt:           time.Now(),
	}, nil
}

// Deviation compares one live reading with the simulated daily profile.
type Deviation struct {
	ExpectedWatts float64
	MeasuredWatts float64
	DeltaWatts    float64
	Ratio         float64
}

// CompareToProfile evaluates a reading against the average daily profile
// at the reading's hour. Ratio is 0 when the profile expects no output.
func CompareToProfile(status *Status, profile [24]float64, at time.Time) Deviation {
	expected := profile[at.Hour()]
	d := Deviation{
		ExpectedWatts: expected,
		MeasuredWatts: status.ACPowerWatts,
		DeltaWatts:    status.ACPowerWatts - expected,
	}
	if expected > 0 {
		d.Ratio = status.ACPowerWatts / expected
	}
	return d
}

func bytesToS16(data []byte) int16 {
	return int16(binary.BigEndian.Uint16(data))
}

func bytesToU32(data []byte) uint32 {
	return binary.BigEndian.Uint32(data)
}

// scaledS16 applies a SunSpec scale factor to a signed register value.
func scaledS16(raw, sf int16) float64 {
	return float64(raw) * math.Pow(10, float64(sf))
}

func scaledU32(raw uint32, sf int16) float64 {
	return float64(raw) * math.Pow(10, float64(sf))
}
