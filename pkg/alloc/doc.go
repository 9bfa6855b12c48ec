// Package alloc assigns spectral peaks to chip voices window by window.
//
// The Allocator owns one indexed array of Voice records per chip instance.
// Each Step:
//
//  1. Drops the weakest peaks beyond the total voice count.
//  2. Lets each peak, strongest first, keep sounding on the nearest active
//     voice within the continuity tolerance. Such a voice is retuned without
//     a new key-on, and not written at all when its code and level are
//     unchanged.
//  3. Gives every remaining peak an idle voice. Instances are tried in
//     configuration order, preferring kinds that can reach the peak
//     frequency without clamping. Voices within an instance are taken in
//     ascending index order. An active voice nobody matched is taken over
//     only when no idle voice is left.
//  4. Keys off every active voice that received no peak.
//
// Distance ties go to the lower instance index, then the lower voice index.
// Register writes come out grouped by instance and voice in ascending
// order, using the fixed per-kind order of package chip.
package alloc
