// Package mqtt provides MQTT client connectivity for the relay hub.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// MQTT is an optional side channel. The relay engine works without it; when
// enabled, telemetry and command events are mirrored onto the bus and
// commands can be injected from it.
//
//	Devices ↔ Relay Hub ↔ Dashboards
//	              ↕
//	         MQTT Broker
//
// # Topics
//
//	{prefix}/sensor/{deviceId}          sensor readings
//	{prefix}/command/{deviceId}/issued  commands sent to a device
//	{prefix}/status/{deviceId}          retained online/offline
//	{prefix}/control/{deviceId}         inbound commands
//	{prefix}/system/status              retained hub status (LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllControl(), 1,
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
package mqtt
