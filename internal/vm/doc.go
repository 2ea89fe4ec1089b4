/*
Package vm implements a software LC-3 computer: an instruction cycle, a
memory controller with memory-mapped I/O, and the interrupt and exception
machinery that switches the machine between user and supervisor privilege.

# CPU

The CPU is extraordinarily simple. It has just:

  - a few registers: program counter, instruction register, processor
    status register, and a master control register
  - a saved user stack-pointer register, used while running with system
    privileges
  - a file of eight general-purpose registers, one of which (R6) doubles as
    the current stack pointer
  - an interrupt controller
  - a memory controller

# Memory

Memory is where the machine keeps its most precious things: programs and
data. The LC-3 has a 16-bit address space of 2-byte words, divided into:

  - system space, below user space, holding the trap and interrupt vector
    tables and the supervisor stack
  - user space, from 0x3000, for unprivileged programs' code and data
  - an I/O page, at the top of the address space, for memory-mapped device
    registers

The memory controller mediates access to both regions uniformly.

## Data flow

The controller translates logical addresses to either a physical memory
cell or a device register. To read or write memory, the CPU puts the
address into the address register (MAR) and, for a write, the data into the
data register (MDR), then calls Fetch or Store; the controller reads into
MDR or writes from MDR, respectively.

This is a strange design from a software perspective -- ordinary function
arguments and return values would do -- but it mirrors the reference
micro-architecture's data path and makes the flow of a fetch or a store
explicit.

## Privilege and the supervisor stack

The current stack is always addressed through R6. Entering supervisor mode
(on a guest exception or an accepted external interrupt) from user mode
saves R6 into USP and resets R6 to the supervisor stack base, 0x3000, which
is also the first address of user space; the supervisor stack grows down
from it.
Returning to user mode via RTI restores R6 from USP. A trap does not itself
change privilege; guest trap routines run at the caller's privilege level.

# Vector tables

System space holds two small tables of addresses: the trap vector table,
0x0000-0x00ff, and the interrupt/exception vector table, 0x0100-0x01ff. TRAP
is an indirect jump through the former; exceptions and accepted external
interrupts are an indirect jump through the latter, by the same prologue.
Neither table's targets are special-cased by the interpreter -- see exec.go
and intr.go -- they are guest code, including the bootstrap trap routines
this package plants at machine construction (see traps.go).

	+========+========+=================+    +-----------------+
	|        | 0xffff |  Memory-mapped  |+   |                 |   +-------------------+
	|        |        |     I/O page    ||   |                 |   |                   |
	|        |   ...  |                 ||   |      Memory     |-->|                   |
	|        |        |                 ||   |    controller   |-->|       MMIO        |
	|        | 0xfe00 |                 |+---|                 |-->|                   |
	+========+========+=================+|   +--------+---+----+   +--+-----+---+---+--+
	|        | 0xfdff |                 ||            |   |           |     |   |   |
	|  User  |  ...   | User stack/data ||   +--------V---V----+   +--v-----V-+-V---V-+
	|  space |        |                 |<---|USP    MCR PSR   |   | KBD  KBSR|DDR DSR|
	|        | 0x3000 |                 ||   |R7(RET)        R3|   |          |       |
	+========+========+=================+|   |R6(SP)         R2|   +------------------+
	|        | 0x2fff |                 ||   |      CPU        |
	| System |  ...   |Supervisor stack ||   |R5             R1|
	| space  |        |                 ||   |R4             R0|
	|        | 0x0200 |                 ||   +-----------------+
	|        +--------------------------+|
	|        | 0x01ff |    Interrupt    ||
	|        |  ...   |  vector table   ||
	|        | 0x0100 |                 ||
	|        +--------+-----------------+|
	|        | 0x00ff |      Trap       ||
	|        |   ...  |  vector table   ||
	|        | 0x0000 |                 |+
	+========+========+=================+
*/
package vm
