package consts

import "time"

// Tunable Options
const (
	// For Underlying Networking
	// BUFFERED_READ_BUFFSIZE is the read buffer size for buffered read connections
	BUFFERED_READ_BUFFSIZE = 16384
	// BUFFERED_WRITE_BUFFSIZE is the write buffer size for buffered write connections
	BUFFERED_WRITE_BUFFSIZE = 16384

	// CENTRAL_CLIENT_WRITE_BUFFER_SIZE is the write buffer size for worlds/chat connections to central
	CENTRAL_CLIENT_WRITE_BUFFER_SIZE = 1024 * 1024
	// CENTRAL_CLIENT_READ_BUFFER_SIZE is the read buffer size for worlds/chat connections to central
	CENTRAL_CLIENT_READ_BUFFER_SIZE = 1024 * 1024
	// PEER_PROXY_WRITE_BUFFER_SIZE is central/chat peer proxies' write buffer size
	PEER_PROXY_WRITE_BUFFER_SIZE = 1024 * 1024
	// PEER_PROXY_READ_BUFFER_SIZE is central/chat peer proxies' read buffer size
	PEER_PROXY_READ_BUFFER_SIZE = 1024 * 1024
	// CLIENT_PROXY_WRITE_BUFFER_SIZE is the write buffer size for worlds' client proxies
	CLIENT_PROXY_WRITE_BUFFER_SIZE = 1024 * 1024
	// CLIENT_PROXY_READ_BUFFER_SIZE is the read buffer size for worlds' client proxies
	CLIENT_PROXY_READ_BUFFER_SIZE = 1024 * 1024
	// CLIENT_PROXY_SET_TCP_NO_DELAY = true sets client proxies to TcpNoDelay
	CLIENT_PROXY_SET_TCP_NO_DELAY = true

	// SERVICE_PACKET_QUEUE_SIZE is the max packet queue length for process services
	SERVICE_PACKET_QUEUE_SIZE = 10000
	// SERVICE_TICK_INTERVAL is the tick interval to tick timers in process services
	SERVICE_TICK_INTERVAL = time.Millisecond * 10 // affects timer resolution

	// REGISTER_PEER_INTERVAL is the retry interval for registering to central
	REGISTER_PEER_INTERVAL = time.Second * 3
	// STATUS_PING_INTERVAL is the interval for worlds to report load to central
	STATUS_PING_INTERVAL = time.Second * 10

	// SPAWN_INSTANCE_TIMEOUT bounds waiting for a requested instance world to register
	SPAWN_INSTANCE_TIMEOUT = time.Second * 30
	// TERMINATE_INSTANCE_DELAY is how long an empty instance world stays alive
	TERMINATE_INSTANCE_DELAY = time.Second * 30

	// AUTOSAVE_INTERVAL is the interval of the periodic character/building save sweep
	AUTOSAVE_INTERVAL = time.Minute * 1

	// For Operation Monitor
	// OPMON_DUMP_INTERVAL is the interval to print opmon infos to output
	OPMON_DUMP_INTERVAL = 0
)

// Debug Options
const (
	// DEBUG_PACKETS prints packet send/recv debug logs
	DEBUG_PACKETS = false
	// DEBUG_SAVE_LOAD prints save & load debug logs
	DEBUG_SAVE_LOAD = false
	// DEBUG_CLIENTS prints clients operation debug logs
	DEBUG_CLIENTS = false
)

//  System level configurations
const (
	// DEBUG_MODE = true turns on debug mode
	DEBUG_MODE = false
)
