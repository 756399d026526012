package earlybirds

import (
	"github.com/ethereum/go-ethereum/common"
)

// SetDemo toggles demo mode. Owner only.
func (c *EarlyBirds) SetDemo(msg Msg, demo bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOwner(msg.Sender); err != nil {
		return err
	}
	c.demo = demo
	c.emit(msg, EventDemoChanged, nil, msg.Sender, map[string]interface{}{"demo": demo})
	c.logger.Infof("Demo mode set to %t by %s", demo, msg.Sender.Hex())
	return nil
}

// SetAdmin grants airdrop rights to admin, replacing any previous admin.
// The zero address clears the slot. Owner only.
func (c *EarlyBirds) SetAdmin(msg Msg, admin common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOwner(msg.Sender); err != nil {
		return err
	}
	previous := c.admin
	c.admin = admin
	c.emit(msg, EventAdminChanged, nil, admin, map[string]interface{}{
		"previous": previous.Hex(),
	})
	c.logger.Infof("Admin changed %s -> %s", previous.Hex(), admin.Hex())
	return nil
}

// TransferOwnership hands the contract to newOwner. Owner only.
func (c *EarlyBirds) TransferOwnership(msg Msg, newOwner common.Address) error {
	if newOwner == (common.Address{}) {
		return ErrInvalidAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOwner(msg.Sender); err != nil {
		return err
	}
	previous := c.owner
	c.owner = newOwner
	c.emit(msg, EventOwnershipTransferred, nil, newOwner, map[string]interface{}{
		"previous": previous.Hex(),
	})
	c.logger.Infof("Ownership transferred %s -> %s", previous.Hex(), newOwner.Hex())
	return nil
}
