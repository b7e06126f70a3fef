// Package traj reads and writes trajectory files.
//
// A trajectory is zstd-compressed ASCII. The header is a sequence of key=value
// lines (format, symbols, natoms, cell, pbc, prec, dt) ended by a line
// holding "**" and the atom count. Each frame has one line per atom with
// position and velocity components "x y z vx vy vz" written with prec
// decimals, followed by a terminator line "* step epot cx cy cz".
//
// Symbols are run-length encoded as "Cu:4000" or "Cu:2,Ni:2". Lengths are in Å,
// velocities in Å per Å·sqrt(amu/eV), energies in eV.
package traj
