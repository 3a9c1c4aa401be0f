// Package controller wires the mode, motion and actuator tasks together
// over the Mode and Delta channels and starts them.
package controller

import (
	"context"
	"errors"
	"sort"
	"sync"

	"ham/controller/actuator"
	"ham/controller/config"
	"ham/controller/mode"
	"ham/controller/motion"
	"ham/core"
	"ham/protocol"
)

// Manager coordinates all controller components
type Manager struct {
	config *config.Config
	store  *mode.Store

	// Mode and Delta channels
	modeChan  *protocol.RingBuffer
	deltaChan *protocol.RingBuffer

	sensor  *mode.Sensor
	rigid   *mode.RigidOverride
	counter *motion.Counter
	driver  *actuator.Driver
	tasks   []Task

	// Status
	mu          sync.Mutex
	initialized bool
	running     bool
	wg          sync.WaitGroup
}

// NewManager creates a manager from YAML configuration data.
// Empty data selects the embedded defaults.
func NewManager(configData []byte) (*Manager, error) {
	cfg, err := config.Load(configData)
	if err != nil {
		return nil, err
	}

	return NewManagerWithConfig(cfg)
}

// NewManagerWithConfig creates a manager with an existing config
func NewManagerWithConfig(cfg *config.Config) (*Manager, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	mgr := &Manager{
		config:    cfg,
		store:     mode.NewStore(),
		modeChan:  protocol.NewRingBuffer(cfg.Queue.Capacity),
		deltaChan: protocol.NewRingBuffer(cfg.Queue.Capacity),
	}

	return mgr, nil
}

// Initialize configures the input pins and creates the enabled tasks
func (m *Manager) Initialize(gpio core.GPIODriver, pwm core.PWMDriver) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return errors.New("already initialized")
	}

	if err := m.configureInputs(gpio); err != nil {
		return err
	}

	t := m.config.Tasks
	if t.ReadMode {
		m.sensor = mode.NewSensor(gpio, m.config, m.modeChan)
		m.rigid = mode.NewRigidOverride(gpio, m.config, m.store)
		m.tasks = append(m.tasks,
			Task{Name: TaskReadMode, Priority: t.Priorities.ReadMode, Run: m.sensor.Run},
			Task{Name: TaskRigidOverride, Priority: t.Priorities.ReadMode, Run: m.rigid.Run},
		)
	}

	if t.DetectMotion {
		counter, err := motion.NewCounter(gpio, m.config, m.deltaChan)
		if err != nil {
			return err
		}
		m.counter = counter
		m.tasks = append(m.tasks, Task{Name: TaskDetectMotion, Priority: t.Priorities.DetectMotion, Run: counter.Run})
	}

	if t.DriveActuators {
		driver, err := actuator.NewDriver(gpio, pwm, m.config, m.store, m.modeChan, m.deltaChan)
		if err != nil {
			return err
		}
		m.driver = driver
		m.tasks = append(m.tasks, Task{Name: TaskDriveActuators, Priority: t.Priorities.DriveActuators, Run: driver.Run})
	}

	// Highest priority first; equal priorities keep declaration order
	sort.SliceStable(m.tasks, func(i, j int) bool {
		return m.tasks[i].Priority > m.tasks[j].Priority
	})

	m.initialized = true
	return nil
}

// configureInputs sets every sensed pin to a plain input: the mode
// switch, each distinct encoder pin and every unit's limit switches
func (m *Manager) configureInputs(gpio core.GPIODriver) error {
	pins := []uint32{m.config.Mode.SwitchPin}
	for _, e := range m.config.Motion.Encoders {
		pins = append(pins, e.A, e.B)
	}
	for _, u := range m.config.Actuator.Units {
		pins = append(pins, u.TopPin, u.BottomPin)
	}

	seen := make(map[uint32]bool, len(pins))
	for _, p := range pins {
		if seen[p] {
			continue
		}
		seen[p] = true
		if err := gpio.ConfigureInput(core.GPIOPin(p)); err != nil {
			return err
		}
	}
	return nil
}

// Start spawns one goroutine per task, highest priority first. Tasks run
// until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return errors.New("manager not initialized")
	}
	if m.running {
		return errors.New("already running")
	}

	for _, task := range m.tasks {
		core.Log("ctl", "start", task.Name, "prio", core.Itoa(task.Priority))
		m.wg.Add(1)
		go func(t Task) {
			defer m.wg.Done()
			t.Run(ctx)
		}(task)
	}

	m.running = true
	return nil
}

// Wait blocks until every started task has returned
func (m *Manager) Wait() {
	m.wg.Wait()
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

// IsRunning returns whether tasks have been started and not yet waited for
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Tasks returns the created tasks in start order
func (m *Manager) Tasks() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Task(nil), m.tasks...)
}

func (m *Manager) Config() *config.Config             { return m.config }
func (m *Manager) Store() *mode.Store                 { return m.store }
func (m *Manager) ModeChannel() *protocol.RingBuffer  { return m.modeChan }
func (m *Manager) DeltaChannel() *protocol.RingBuffer { return m.deltaChan }

// Driver returns the actuator task, nil when disabled
func (m *Manager) Driver() *actuator.Driver { return m.driver }

// Counter returns the motion task, nil when disabled
func (m *Manager) Counter() *motion.Counter { return m.counter }

// Sensor returns the mode task, nil when disabled
func (m *Manager) Sensor() *mode.Sensor { return m.sensor }

// Rigid returns the override task, nil when mode reading is disabled
func (m *Manager) Rigid() *mode.RigidOverride { return m.rigid }
